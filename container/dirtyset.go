// Package container holds small concurrency-safe collections shared by the
// header map. It stays narrowly scoped to what the header map actually
// needs rather than a general-purpose set library.
package container

import (
	"sync"

	"github.com/blockvault/blockidx/model/blockindex"
)

// DirtySet tracks block index entries whose persistent representation may
// have drifted from what is currently on disk. A flush drains it and
// writes exactly the entries that changed since the last one, instead of
// rewriting the whole header map.
type DirtySet struct {
	mu      sync.RWMutex
	entries map[*blockindex.BlockIndex]struct{}
}

func NewDirtySet() *DirtySet {
	return &DirtySet{entries: make(map[*blockindex.BlockIndex]struct{})}
}

// Add records bi as dirty, returning false if it was already present.
func (s *DirtySet) Add(bi *blockindex.BlockIndex) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[bi]; ok {
		return false
	}
	s.entries[bi] = struct{}{}
	return true
}

// Remove clears bi's dirty mark, if it had one.
func (s *DirtySet) Remove(bi *blockindex.BlockIndex) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, bi)
}

// List returns a snapshot of every entry currently marked dirty. Order is
// unspecified.
func (s *DirtySet) List() []*blockindex.BlockIndex {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*blockindex.BlockIndex, 0, len(s.entries))
	for bi := range s.entries {
		out = append(out, bi)
	}
	return out
}

// Size reports how many entries are currently marked dirty.
func (s *DirtySet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// IsEmpty reports whether no entries are currently marked dirty.
func (s *DirtySet) IsEmpty() bool {
	return s.Size() == 0
}
