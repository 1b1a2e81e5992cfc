package container

import (
	"github.com/syssam/stepping/index"
	"github.com/syssam/stepping/value"
)

// SortedSet is an ordered view over a set of value.Value elements, ordered
// by a single index.Index (spec §4.2). It is the container type zset.ZSet
// uses once per declared Index.
type SortedSet struct {
	ix   *index.Index
	tree *BTree[value.Value, value.Value]
}

// NewSortedSet constructs an empty SortedSet ordered by ix.
func NewSortedSet(ix *index.Index) *SortedSet {
	less := func(a, b value.Value) bool { return ix.Compare(a, b) < 0 }
	id := func(v value.Value) string { return value.IdentityHex(v) }
	return &SortedSet{ix: ix, tree: New[value.Value, value.Value](less, id)}
}

// Add returns a new SortedSet with elem inserted, keyed by the index.
func (s *SortedSet) Add(elem value.Value) *SortedSet {
	return &SortedSet{ix: s.ix, tree: s.tree.Add(elem, s.ix.KeyOf(elem))}
}

// Remove returns a new SortedSet with elem tombstoned.
func (s *SortedSet) Remove(elem value.Value) *SortedSet {
	return &SortedSet{ix: s.ix, tree: s.tree.Remove(elem)}
}

// Iter yields every live element in ascending index order.
func (s *SortedSet) Iter() []value.Value {
	return s.tree.IterSorted()
}

// IterMatching yields live elements whose index key equals one of keys, in
// ascending key order across the whole call (spec §4.2/§5(c)).
func (s *SortedSet) IterMatching(keys []value.Value) []value.Value {
	sorted := append([]value.Value(nil), keys...)
	// Sort the requested keys themselves so output order matches a single
	// ascending scan, mirroring the Postgres-compatible behaviour of the
	// original SortedSet.iter_matching.
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && s.ix.Compare(sorted[j], sorted[j-1]) < 0; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	return s.tree.IterMatching(sorted)
}
