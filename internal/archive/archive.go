// Package archive detects and unpacks the container formats retail portals
// serve price files in. Portals routinely mislabel payloads, so detection
// goes by magic bytes and extraction falls back across formats before
// giving up.
package archive

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/zilazol/price-crawler/internal/types"
)

// maxEntrySize caps a single decompressed document. Price files run tens of
// megabytes at most; anything past this is a bomb or a broken stream.
const maxEntrySize = 256 * 1024 * 1024

// Entry is one XML document recovered from a downloaded blob.
type Entry struct {
	Name    string
	Content []byte
}

// Sniff classifies a blob by its leading magic bytes. The filename extension
// is deliberately ignored.
func Sniff(data []byte) types.ArchiveKind {
	if len(data) >= 2 && data[0] == 0x1F && data[1] == 0x8B {
		return types.ArchiveGzip
	}
	if len(data) >= 2 && data[0] == 'P' && data[1] == 'K' {
		return types.ArchiveZip
	}
	return types.ArchiveRaw
}

// ExtractXML unpacks every XML document contained in data. The hint filename
// seeds entry names for formats that carry none. When the sniffed format
// fails to decode, the other container format is tried before the error is
// returned; a raw blob that does not look like markup yields zero entries
// and no error.
func ExtractXML(data []byte, hint string) ([]Entry, error) {
	switch Sniff(data) {
	case types.ArchiveGzip:
		entries, err := extractGzip(data, hint)
		if err != nil {
			if fallback, ferr := extractZip(data); ferr == nil {
				return fallback, nil
			}
			return nil, err
		}
		return entries, nil
	case types.ArchiveZip:
		entries, err := extractZip(data)
		if err != nil {
			if fallback, ferr := extractGzip(data, hint); ferr == nil {
				return fallback, nil
			}
			return nil, err
		}
		return entries, nil
	default:
		return extractRaw(data, hint), nil
	}
}

func extractGzip(data []byte, hint string) ([]Entry, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip open: %w", err)
	}
	defer zr.Close()

	content, err := io.ReadAll(io.LimitReader(zr, maxEntrySize))
	if err != nil {
		return nil, fmt.Errorf("gzip read: %w", err)
	}

	name := strings.TrimSuffix(strings.TrimSuffix(hint, ".gz"), ".zip")
	if name == "" {
		name = "data.xml"
	}
	return []Entry{{Name: name, Content: content}}, nil
}

func extractZip(data []byte) ([]Entry, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("zip open: %w", err)
	}

	var entries []Entry
	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		name := path.Base(path.Clean(strings.ReplaceAll(file.Name, "\\", "/")))
		if name == "." || name == ".." || name == "/" {
			continue
		}
		if !strings.EqualFold(path.Ext(name), ".xml") {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("zip entry %s: %w", name, err)
		}
		content, err := io.ReadAll(io.LimitReader(rc, maxEntrySize))
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("zip entry %s: %w", name, err)
		}
		entries = append(entries, Entry{Name: name, Content: content})
	}
	return entries, nil
}

// extractRaw accepts a blob as plain XML only when the head of the payload
// actually contains markup. Error pages and empty bodies are dropped here
// rather than surfacing as parse failures downstream.
func extractRaw(data []byte, hint string) []Entry {
	head := data
	if len(head) > 200 {
		head = head[:200]
	}
	if !bytes.ContainsRune(head, '<') || !bytes.ContainsRune(head, '>') {
		return nil
	}
	name := hint
	if name == "" {
		name = "data.xml"
	}
	return []Entry{{Name: name, Content: data}}
}
