package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeenAndRecord(t *testing.T) {
	s := NewSet()
	data := []byte("<Prices/>")

	assert.False(t, s.SeenAndRecord("shufersal", "PriceFull-001.gz", data))
	assert.True(t, s.SeenAndRecord("shufersal", "PriceFull-001.gz", data))
	assert.Equal(t, 1, s.Len())
}

func TestDuplicateByNameDespiteDifferentBytes(t *testing.T) {
	s := NewSet()

	assert.False(t, s.SeenAndRecord("shufersal", "PriceFull-001.gz", []byte("aaa")))
	// Same name, different compression of the same logical file.
	assert.True(t, s.SeenAndRecord("shufersal", "PRICEFULL-001.GZ", []byte("bbb")))
}

func TestDuplicateByHashDespiteDifferentName(t *testing.T) {
	s := NewSet()
	data := []byte("<Prices/>")

	assert.False(t, s.SeenAndRecord("shufersal", "a.gz", data))
	assert.True(t, s.SeenAndRecord("shufersal", "b.gz", data))
}

func TestNameScopedPerRetailer(t *testing.T) {
	s := NewSet()

	assert.False(t, s.SeenAndRecord("shufersal", "PriceFull.gz", []byte("aaa")))
	// Another retailer may legitimately publish the same filename.
	assert.False(t, s.SeenAndRecord("victory", "PriceFull.gz", []byte("bbb")))
}

func TestSeenDoesNotRecord(t *testing.T) {
	s := NewSet()
	data := []byte("x")

	assert.False(t, s.Seen("r", "f.gz", data))
	assert.False(t, s.Seen("r", "f.gz", data))
	s.Record("r", "f.gz", data)
	assert.True(t, s.Seen("r", "f.gz", data))
}
