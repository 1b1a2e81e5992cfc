package operators

import (
	"github.com/syssam/stepping/index"
	"github.com/syssam/stepping/value"
	"github.com/syssam/stepping/zset"
)

// Grouped partitions a Z-set's elements by key, one sub-Z-set per distinct
// key — the runtime representation of spec §4.6's Grouped<T,K>.
type Grouped struct {
	by        *index.Index
	elemIdx   []*index.Index
	zsets     map[string]*zset.ZSet
	keys      map[string]value.Value
}

// By returns the index this grouping partitions on.
func (g *Grouped) By() *index.Index { return g.by }

// Keys returns the distinct group keys, in no particular order.
func (g *Grouped) Keys() []value.Value {
	out := make([]value.Value, 0, len(g.keys))
	for _, k := range g.keys {
		out = append(out, k)
	}
	return out
}

// At returns the sub-Z-set for key, or an empty Z-set if the key is absent.
func (g *Grouped) At(key value.Value) *zset.ZSet {
	if z, ok := g.zsets[value.IdentityHex(key)]; ok {
		return z
	}
	return zset.New(g.elemIdx...)
}

// Has reports whether key has an entry in the grouping.
func (g *Grouped) Has(key value.Value) bool {
	_, ok := g.zsets[value.IdentityHex(key)]
	return ok
}

// WithKey returns a copy of g with key's sub-Z-set replaced — used by
// lift_grouped (rewrite package) to build the lifted output grouping.
func (g *Grouped) WithKey(key value.Value, z *zset.ZSet) *Grouped {
	out := &Grouped{by: g.by, elemIdx: g.elemIdx, zsets: map[string]*zset.ZSet{}, keys: map[string]value.Value{}}
	for k, v := range g.zsets {
		out.zsets[k] = v
	}
	for k, v := range g.keys {
		out.keys[k] = v
	}
	id := value.IdentityHex(key)
	out.zsets[id] = z
	out.keys[id] = key
	return out
}

// EmptyGrouped constructs a Grouped with no keys, partitioned on by, whose
// per-key Z-sets declare elemIndexes.
func EmptyGrouped(by *index.Index, elemIndexes ...*index.Index) *Grouped {
	return &Grouped{by: by, elemIdx: elemIndexes, zsets: map[string]*zset.ZSet{}, keys: map[string]value.Value{}}
}

// GroupFn partitions z by the key extracted via by (spec §4.6).
func GroupFn(z *zset.ZSet, by *index.Index, elemIndexes ...*index.Index) *Grouped {
	g := EmptyGrouped(by, elemIndexes...)
	for _, e := range z.Iter(zset.MatchAll()) {
		k := by.KeyOf(e.V)
		id := value.IdentityHex(k)
		cur, ok := g.zsets[id]
		if !ok {
			cur = zset.New(elemIndexes...)
			g.keys[id] = k
		}
		g.zsets[id] = cur.Plus(zset.Single(e.V, e.C, elemIndexes...))
	}
	return g
}

// FlattenFn re-emits a Grouped as pairs (value, key) (spec §4.6). Round-trip
// property (spec §8.5): FlattenFn(GroupFn(z, by)) reproduces z as
// Pair(value, by.KeyOf(value)).
func FlattenFn(g *Grouped, outIndexes ...*index.Index) *zset.ZSet {
	out := zset.New(outIndexes...)
	for id, z := range g.zsets {
		k := g.keys[id]
		for _, e := range z.Iter(zset.MatchAll()) {
			out = out.Plus(zset.Single(value.Pair(e.V, k), e.C, outIndexes...))
		}
	}
	return out
}
