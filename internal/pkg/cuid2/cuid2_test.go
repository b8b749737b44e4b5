package cuid2

import (
	"strings"
	"testing"
)

func TestRandomIdLength(t *testing.T) {
	for _, length := range []int{1, 8, 24, 64} {
		id := RandomId(length)
		if len(id) != length {
			t.Errorf("RandomId(%d) length = %d, want %d", length, len(id), length)
		}
	}
}

func TestRandomIdAlphabet(t *testing.T) {
	id := RandomId(256)
	for _, c := range id {
		if !strings.ContainsRune(base62Alphabet, c) {
			t.Errorf("ID contains non-base62 character: %c in %s", c, id)
		}
	}
}

func TestRandomIdUniqueness(t *testing.T) {
	ids := make(map[string]bool)
	for i := 0; i < 10000; i++ {
		id := RandomId(8)
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}
}
