// Package store persists accepted profile records and maintains the dedup
// set the crawl consults before fetching.
package store

import "strings"

// DedupSet is the in-memory identity set mirrored from the durable store.
// It only ever grows: there is no delete operation, and keys are compared
// case-insensitively. It is mutated exclusively by the orchestration
// goroutine, so no locking is needed.
type DedupSet struct {
	keys map[string]struct{}
}

// NewDedupSet returns an empty set.
func NewDedupSet() *DedupSet {
	return &DedupSet{keys: make(map[string]struct{})}
}

// Contains reports whether key is already in the set.
func (d *DedupSet) Contains(key string) bool {
	_, ok := d.keys[strings.ToLower(key)]
	return ok
}

// Add registers key.
func (d *DedupSet) Add(key string) {
	d.keys[strings.ToLower(key)] = struct{}{}
}

// Len returns the number of known identities.
func (d *DedupSet) Len() int {
	return len(d.keys)
}
