// Package memstore implements graph.Store entirely in memory: a map from
// vertex path to a pair of Z-set cells. Grounded on spec §3/§4.8's Store
// contract; the in-memory analogue of sqlzset's durable store, used by
// tests and by callers that don't need cross-process durability.
package memstore

import (
	"fmt"
	"sync"

	"github.com/syssam/stepping/graph"
	"github.com/syssam/stepping/zset"
)

type cell struct {
	current *zset.ZSet
	pending *zset.ZSet
	dirty   bool
}

// Store is an in-memory graph.Store. The zero value is not usable; use New.
type Store struct {
	mu    sync.Mutex
	cells map[string]*cell
}

// New constructs an empty Store.
func New() *Store {
	return &Store{cells: map[string]*cell{}}
}

// Allocate registers v's declared indexes so Get returns a correctly
// indexed empty Z-set before the first Set.
func (s *Store) Allocate(v *graph.Vertex) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := v.Path.String()
	if _, ok := s.cells[key]; ok {
		return nil
	}
	z := zset.New(v.Indexes...)
	s.cells[key] = &cell{current: z, pending: z}
	return nil
}

// Get returns the current value of vertex p's cell.
func (s *Store) Get(p graph.Path) (*zset.ZSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cells[p.String()]
	if !ok {
		return nil, fmt.Errorf("memstore: vertex %q was never allocated", p)
	}
	return c.current, nil
}

// Set writes the pending value for vertex p's cell.
func (s *Store) Set(p graph.Path, z *zset.ZSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cells[p.String()]
	if !ok {
		return fmt.Errorf("memstore: vertex %q was never allocated", p)
	}
	c.pending = z
	c.dirty = true
	return nil
}

// Inc promotes every dirty pending cell to current.
func (s *Store) Inc() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cells {
		if c.dirty {
			c.current = c.pending
			c.dirty = false
		}
	}
	return nil
}

// Clone returns an independent Store whose cells start as a copy of this
// one's: a what-if Set/Inc trajectory on the clone never mutates the
// original's cells map, or vice versa. Z-sets themselves are immutable
// (zset.ZSet's operations all return a new value), so each cell's
// current/pending pointers are shared rather than deep-copied — only the
// map and cell structs need their own allocation (spec §12, supplemented
// from original_source/store.py's Store contract; deep-copy-the-container
// pattern grounded on the pack's other_examples BART routing table Clone).
func (s *Store) Clone() graph.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := &Store{cells: make(map[string]*cell, len(s.cells))}
	for k, c := range s.cells {
		clone.cells[k] = &cell{current: c.current, pending: c.pending, dirty: c.dirty}
	}
	return clone
}
