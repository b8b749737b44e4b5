package archive

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zilazol/price-crawler/internal/types"
)

func gzipBytes(t *testing.T, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(content)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func zipBytes(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestSniff(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want types.ArchiveKind
	}{
		{"gzip magic", []byte{0x1F, 0x8B, 0x08, 0x00}, types.ArchiveGzip},
		{"zip magic", []byte("PK\x03\x04rest"), types.ArchiveZip},
		{"plain xml", []byte("<?xml version=\"1.0\"?><Root/>"), types.ArchiveRaw},
		{"empty", nil, types.ArchiveRaw},
		{"single byte", []byte{0x1F}, types.ArchiveRaw},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sniff(tt.data))
		})
	}
}

func TestExtractXMLGzip(t *testing.T) {
	xml := []byte("<?xml version=\"1.0\"?><Prices><Item/></Prices>")
	blob := gzipBytes(t, xml)

	entries, err := ExtractXML(blob, "PriceFull7290027600007-001-202601010800.gz")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "PriceFull7290027600007-001-202601010800", entries[0].Name)
	assert.Equal(t, xml, entries[0].Content)
}

func TestExtractXMLGzipNoHint(t *testing.T) {
	blob := gzipBytes(t, []byte("<Root/>"))

	entries, err := ExtractXML(blob, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "data.xml", entries[0].Name)
}

func TestExtractXMLZip(t *testing.T) {
	blob := zipBytes(t, map[string][]byte{
		"Price7290055700007-123-202601010800.xml": []byte("<Prices/>"),
		"readme.txt": []byte("ignore me"),
	})

	entries, err := ExtractXML(blob, "bundle.zip")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Price7290055700007-123-202601010800.xml", entries[0].Name)
	assert.Equal(t, []byte("<Prices/>"), entries[0].Content)
}

func TestExtractXMLZipTraversalFlattened(t *testing.T) {
	blob := zipBytes(t, map[string][]byte{
		"../../evil/path/Store.xml": []byte("<Stores/>"),
	})

	entries, err := ExtractXML(blob, "bundle.zip")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Store.xml", entries[0].Name)
}

func TestExtractXMLMislabeledZipInsideGzipSniff(t *testing.T) {
	// A zip blob handed to us with a .gz name still extracts: sniffing
	// ignores the extension entirely.
	blob := zipBytes(t, map[string][]byte{"Price.xml": []byte("<Prices/>")})

	entries, err := ExtractXML(blob, "actually-a-zip.gz")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Price.xml", entries[0].Name)
}

func TestExtractXMLRaw(t *testing.T) {
	xml := []byte("<?xml version=\"1.0\" encoding=\"UTF-8\"?><Prices/>")

	entries, err := ExtractXML(xml, "Price.xml")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Price.xml", entries[0].Name)
	assert.Equal(t, xml, entries[0].Content)
}

func TestExtractXMLRawNonMarkupDropped(t *testing.T) {
	entries, err := ExtractXML([]byte("403 Forbidden"), "Price.xml")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExtractXMLCorruptGzip(t *testing.T) {
	blob := []byte{0x1F, 0x8B, 0xFF, 0xFF, 0x00}

	_, err := ExtractXML(blob, "broken.gz")
	assert.Error(t, err)
}

func TestExtractXMLRoundTripGzip(t *testing.T) {
	// Payload survives compression byte for byte.
	payload := []byte("<Prices>\n<Item><ItemCode>7290000000001</ItemCode></Item>\n</Prices>")
	entries, err := ExtractXML(gzipBytes(t, payload), "p.gz")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, payload, entries[0].Content)
}
