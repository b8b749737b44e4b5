// Package charset normalizes price-file bytes to UTF-8. Most Israeli
// portals emit UTF-8, but older backends still serve Hebrew text as
// Windows-1255 or ISO-8859-8, sometimes with an XML declaration that lies.
package charset

import (
	"bytes"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Encoding represents a text encoding
type Encoding string

const (
	EncodingUTF8        Encoding = "utf-8"
	EncodingWindows1255 Encoding = "windows-1255"
	EncodingISO88598    Encoding = "iso-8859-8"
)

var xmlDeclEncoding = regexp.MustCompile(`(?i)encoding=["']([A-Za-z0-9._-]+)["']`)

// DetectEncoding detects the encoding of a byte buffer. The XML declaration
// is consulted only when the bytes are not already valid UTF-8, since
// declarations frequently disagree with the actual payload.
func DetectEncoding(data []byte) Encoding {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return EncodingUTF8
	}
	if utf8.Valid(data) {
		return EncodingUTF8
	}

	head := data
	if len(head) > 200 {
		head = head[:200]
	}
	if match := xmlDeclEncoding.FindSubmatch(head); match != nil {
		switch strings.ToLower(string(match[1])) {
		case "iso-8859-8", "iso-8859-8-i":
			return EncodingISO88598
		}
	}
	return EncodingWindows1255
}

// Decode converts a byte buffer to a UTF-8 string. Valid UTF-8 passes
// through untouched regardless of the requested encoding, which prevents
// double-decoding when a portal declares windows-1255 over UTF-8 bytes.
func Decode(data []byte, enc Encoding) (string, error) {
	data = stripBOM(data)

	if utf8.Valid(data) {
		return string(data), nil
	}

	var cm *charmap.Charmap
	switch enc {
	case EncodingISO88598:
		cm = charmap.ISO8859_8
	default:
		cm = charmap.Windows1255
	}

	result, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), cm.NewDecoder()))
	if err != nil {
		return "", err
	}
	return string(result), nil
}

// DecodeDetected detects the encoding and decodes in one step.
func DecodeDetected(data []byte) (string, error) {
	return Decode(data, DetectEncoding(data))
}

// ToUTF8Reader wraps a reader with a decoder to convert to UTF-8
func ToUTF8Reader(r io.Reader, enc Encoding) (io.Reader, error) {
	var decoder encoding.Encoding

	switch enc {
	case EncodingWindows1255:
		decoder = charmap.Windows1255
	case EncodingISO88598:
		decoder = charmap.ISO8859_8
	default:
		return r, nil
	}

	return transform.NewReader(r, decoder.NewDecoder()), nil
}

func stripBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}
