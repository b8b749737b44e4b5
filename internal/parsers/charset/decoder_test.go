package charset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// "שופרסל" in Windows-1255 bytes.
var win1255Shufersal = []byte{0xF9, 0xE5, 0xF4, 0xF8, 0xF1, 0xEC}

func TestDetectEncoding(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Encoding
	}{
		{"utf8 bom", append([]byte{0xEF, 0xBB, 0xBF}, []byte("<Root/>")...), EncodingUTF8},
		{"plain ascii", []byte("<Prices><ItemCode>123</ItemCode></Prices>"), EncodingUTF8},
		{"utf8 hebrew", []byte("<ItemName>שופרסל</ItemName>"), EncodingUTF8},
		{"windows-1255 bytes", win1255Shufersal, EncodingWindows1255},
		{
			"declared iso-8859-8",
			append([]byte(`<?xml version="1.0" encoding="ISO-8859-8"?><N>`), win1255Shufersal...),
			EncodingISO88598,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectEncoding(tt.data))
		})
	}
}

func TestDecodeWindows1255(t *testing.T) {
	out, err := Decode(win1255Shufersal, EncodingWindows1255)
	require.NoError(t, err)
	assert.Equal(t, "שופרסל", out)
}

func TestDecodeValidUTF8PassesThrough(t *testing.T) {
	// A lying declaration must not trigger a second decode.
	data := []byte(`<?xml version="1.0" encoding="windows-1255"?><ItemName>חלב</ItemName>`)
	out, err := Decode(data, EncodingWindows1255)
	require.NoError(t, err)
	assert.Equal(t, string(data), out)
}

func TestDecodeDetected(t *testing.T) {
	out, err := DecodeDetected(win1255Shufersal)
	require.NoError(t, err)
	assert.Equal(t, "שופרסל", out)
}

func TestDecodeStripsBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("<Root/>")...)
	out, err := Decode(data, EncodingUTF8)
	require.NoError(t, err)
	assert.Equal(t, "<Root/>", out)
}
