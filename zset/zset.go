// Package zset implements the in-memory Z-set (spec §4.3): an ordered
// mapping value.Value -> non-zero signed multiplicity, with one ordered key
// index per declared index.Index.
package zset

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/syssam/stepping"
	"github.com/syssam/stepping/container"
	"github.com/syssam/stepping/index"
	"github.com/syssam/stepping/value"
)

// Entry is one live (value, count) pair of a Z-set.
type Entry struct {
	V value.Value
	C int64
}

// IndexEntry is one (key, value, count) triple yielded by IterByIndex.
type IndexEntry struct {
	Key value.Value
	V   value.Value
	C   int64
}

// Match selects which elements Iter/IterByIndex should consider: either
// every element (All) or a finite set of values/keys.
type Match struct {
	All  bool
	Vals []value.Value
}

// MatchAll selects every element.
func MatchAll() Match { return Match{All: true} }

// MatchValues selects only the given finite set of values/keys.
func MatchValues(vals ...value.Value) Match { return Match{Vals: vals} }

// ZSet is an immutable multiset of value.Value with signed counts and a
// declared tuple of indexes. All mutating operations return a new ZSet;
// the receiver is never modified.
type ZSet struct {
	entries map[string]Entry
	indexes []*index.Index
	sorted  map[string]*container.SortedSet
}

// New constructs an empty Z-set declaring the given indexes.
func New(indexes ...*index.Index) *ZSet {
	sorted := make(map[string]*container.SortedSet, len(indexes))
	for _, ix := range indexes {
		sorted[ix.Descriptor().Name] = container.NewSortedSet(ix)
	}
	return &ZSet{entries: map[string]Entry{}, indexes: indexes, sorted: sorted}
}

// Single constructs a one-element Z-set with the given count, declaring
// indexes. A zero count yields the empty Z-set (spec §3: "no entry has
// multiplicity 0").
func Single(v value.Value, c int64, indexes ...*index.Index) *ZSet {
	return New(indexes...).withDelta(v, c)
}

// Indexes returns the Z-set's declared indexes.
func (z *ZSet) Indexes() []*index.Index { return z.indexes }

// Len returns the number of distinct (non-zero-count) elements.
func (z *ZSet) Len() int { return len(z.entries) }

// CountOf returns the multiplicity of v (0 if absent).
func (z *ZSet) CountOf(v value.Value) int64 {
	return z.entries[value.IdentityHex(v)].C
}

func (z *ZSet) clone() *ZSet {
	e2 := make(map[string]Entry, len(z.entries))
	for k, v := range z.entries {
		e2[k] = v
	}
	s2 := make(map[string]*container.SortedSet, len(z.sorted))
	for k, v := range z.sorted {
		s2[k] = v
	}
	return &ZSet{entries: e2, indexes: z.indexes, sorted: s2}
}

// withDelta applies a signed count delta to v, updating every declared
// index only when the element is newly introduced or fully removed (spec
// §4.3).
func (z *ZSet) withDelta(v value.Value, delta int64) *ZSet {
	out := z.clone()
	id := value.IdentityHex(v)
	cur, existed := out.entries[id]
	newCount := delta
	if existed {
		newCount = cur.C + delta
	}
	if newCount == 0 {
		if existed {
			delete(out.entries, id)
			for name, ss := range out.sorted {
				out.sorted[name] = ss.Remove(v)
			}
		}
		return out
	}
	out.entries[id] = Entry{V: v, C: newCount}
	if !existed {
		for name, ss := range out.sorted {
			out.sorted[name] = ss.Add(v)
		}
	}
	return out
}

// Plus folds other into a copy of z (spec §3: "addition is defined
// pointwise"); the result keeps z's declared indexes.
func (z *ZSet) Plus(other *ZSet) *ZSet {
	out := z.clone()
	for _, e := range other.entries {
		out = out.withDelta(e.V, e.C)
	}
	return out
}

// Neg negates every count.
func (z *ZSet) Neg() *ZSet {
	out := New(z.indexes...)
	for _, e := range z.entries {
		out = out.withDelta(e.V, -e.C)
	}
	return out
}

// Scale multiplies every count by r; r == 0 yields the empty Z-set.
func (z *ZSet) Scale(r int64) *ZSet {
	out := New(z.indexes...)
	if r == 0 {
		return out
	}
	for _, e := range z.entries {
		out = out.withDelta(e.V, e.C*r)
	}
	return out
}

// Entries implements value.ZSetLike, letting a Z-set itself be a Value.
func (z *ZSet) Entries() []value.Entry {
	type keyed struct {
		b []byte
		e value.Entry
	}
	ks := make([]keyed, 0, len(z.entries))
	for _, e := range z.entries {
		ks = append(ks, keyed{value.MustEncode(e.V), value.Entry{V: e.V, C: e.C}})
	}
	sort.Slice(ks, func(i, j int) bool { return bytes.Compare(ks[i].b, ks[j].b) < 0 })
	out := make([]value.Entry, len(ks))
	for i, k := range ks {
		out[i] = k.e
	}
	return out
}

// Iter enumerates entries. When match selects a finite set, iteration is
// restricted to those values; otherwise entries come back in the first
// declared index's order, or insertion-arbitrary-but-deterministic
// (identity-hex sorted) order if no index is declared (spec §4.3).
func (z *ZSet) Iter(match Match) []Entry {
	if !match.All {
		out := make([]Entry, 0, len(match.Vals))
		for _, v := range match.Vals {
			if e, ok := z.entries[value.IdentityHex(v)]; ok {
				out = append(out, e)
			}
		}
		return out
	}
	if len(z.indexes) > 0 {
		ss := z.sorted[z.indexes[0].Descriptor().Name]
		vals := ss.Iter()
		out := make([]Entry, 0, len(vals))
		for _, v := range vals {
			out = append(out, z.entries[value.IdentityHex(v)])
		}
		return out
	}
	ids := make([]string, 0, len(z.entries))
	for id := range z.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		out = append(out, z.entries[id])
	}
	return out
}

// IterByIndex enumerates (key, value, count) triples ordered ascending by
// ix's key, restricted to match. Fails if ix was not declared on this
// Z-set (spec §4.3/§7).
func (z *ZSet) IterByIndex(ix *index.Index, match Match) ([]IndexEntry, error) {
	ss, ok := z.sorted[ix.Descriptor().Name]
	if !ok || !z.hasIndex(ix) {
		return nil, fmt.Errorf("zset: index %q is not declared on this Z-set: %w", ix.Descriptor().Name, stepping.ErrIndexUndeclared)
	}
	if !match.All && len(match.Vals) == 0 {
		return nil, nil
	}
	var vals []value.Value
	if match.All {
		vals = ss.Iter()
	} else {
		vals = ss.IterMatching(match.Vals)
	}
	out := make([]IndexEntry, 0, len(vals))
	for _, v := range vals {
		e := z.entries[value.IdentityHex(v)]
		out = append(out, IndexEntry{Key: ix.KeyOf(v), V: v, C: e.C})
	}
	return out, nil
}

func (z *ZSet) hasIndex(ix *index.Index) bool {
	for _, d := range z.indexes {
		if d.Equal(ix) {
			return true
		}
	}
	return false
}

// String renders a short, sorted, human-readable dump, for parity with the
// original engine's Z-set repr (supplements spec per SPEC_FULL.md §12).
func (z *ZSet) String() string {
	entries := z.Iter(MatchAll())
	s := "{"
	for i, e := range entries {
		if i > 0 {
			s += ", "
		}
		if i >= 10 {
			s += "..."
			break
		}
		s += fmt.Sprintf("%v:%d", value.MustEncode(e.V), e.C)
	}
	return s + "}"
}
