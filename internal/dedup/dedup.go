// Package dedup tracks files already processed inside a single crawl run so
// a retailer's fallback sources do not re-ingest what the first source
// yielded.
package dedup

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"sync"
)

// Set remembers downloaded payloads two ways: by MD5 of the bytes and by a
// retailer-scoped lowercased filename. Either match marks a duplicate.
// Filename matching catches portals that re-serve the same file with
// different compression wrapping, where hashes diverge.
type Set struct {
	mu     sync.Mutex
	hashes map[string]struct{}
	names  map[string]struct{}
}

// NewSet returns an empty duplicate tracker.
func NewSet() *Set {
	return &Set{
		hashes: make(map[string]struct{}),
		names:  make(map[string]struct{}),
	}
}

// HashHex returns the lowercase MD5 hex digest of data.
func HashHex(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// Seen reports whether the payload or its name was already recorded.
func (s *Set) Seen(retailerID, filename string, data []byte) bool {
	hash := HashHex(data)
	key := nameKey(retailerID, filename)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hashes[hash]; ok {
		return true
	}
	_, ok := s.names[key]
	return ok
}

// Record marks the payload and its name as processed.
func (s *Set) Record(retailerID, filename string, data []byte) {
	hash := HashHex(data)
	key := nameKey(retailerID, filename)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashes[hash] = struct{}{}
	s.names[key] = struct{}{}
}

// SeenAndRecord atomically checks and records, returning true when the
// payload was a duplicate.
func (s *Set) SeenAndRecord(retailerID, filename string, data []byte) bool {
	hash := HashHex(data)
	key := nameKey(retailerID, filename)

	s.mu.Lock()
	defer s.mu.Unlock()
	_, dupHash := s.hashes[hash]
	_, dupName := s.names[key]
	s.hashes[hash] = struct{}{}
	s.names[key] = struct{}{}
	return dupHash || dupName
}

// Len returns how many distinct payloads were recorded.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hashes)
}

func nameKey(retailerID, filename string) string {
	return retailerID + "/" + strings.ToLower(filename)
}
