package operators

import (
	"fmt"

	"github.com/syssam/stepping"
	"github.com/syssam/stepping/index"
	"github.com/syssam/stepping/value"
	"github.com/syssam/stepping/zset"
)

// MapFn applies f elementwise over T, preserving counts (spec §4.6).
// outIndexes declares the indexes of the result Z-set.
func MapFn(z *zset.ZSet, f func(value.Value) value.Value, outIndexes ...*index.Index) *zset.ZSet {
	out := zset.New(outIndexes...)
	for _, e := range z.Iter(zset.MatchAll()) {
		out = out.Plus(zset.Single(f(e.V), e.C, outIndexes...))
	}
	return out
}

// MapManyFn applies f: T -> set<V>; each result value inherits the count of
// its origin (spec §4.6).
func MapManyFn(z *zset.ZSet, f func(value.Value) []value.Value, outIndexes ...*index.Index) *zset.ZSet {
	out := zset.New(outIndexes...)
	for _, e := range z.Iter(zset.MatchAll()) {
		for _, v := range f(e.V) {
			out = out.Plus(zset.Single(v, e.C, outIndexes...))
		}
	}
	return out
}

// FilterFn drops (v,c) when !p(v) (spec §4.6).
func FilterFn(z *zset.ZSet, p func(value.Value) bool) *zset.ZSet {
	out := zset.New(z.Indexes()...)
	for _, e := range z.Iter(zset.MatchAll()) {
		if p(e.V) {
			out = out.Plus(zset.Single(e.V, e.C, z.Indexes()...))
		}
	}
	return out
}

// ReduceFn computes the scalar sum(pick(v)*c) + zero() (spec §4.6); the
// result is returned as a plain int64 (the engine's scalar representation)
// rather than wrapped back into a Z-set — callers that need a
// singleton-Z-set scalar should use MakeSetFn on the result.
func ReduceFn(z *zset.ZSet, zero func() int64, pick func(value.Value) int64) int64 {
	total := zero()
	for _, e := range z.Iter(zset.MatchAll()) {
		total += pick(e.V) * e.C
	}
	return total
}

// MakeSetFn singleton-ifies a scalar into a one-element Z-set with count 1
// (spec §4.6).
func MakeSetFn(v value.Value, outIndexes ...*index.Index) *zset.ZSet {
	return zset.Single(v, 1, outIndexes...)
}

// MakeScalarFn is MakeSet's partial inverse: fails if z has more than one
// distinct value with count 1 (spec §4.6/§7).
func MakeScalarFn(z *zset.ZSet) (value.Value, error) {
	entries := z.Iter(zset.MatchAll())
	switch len(entries) {
	case 0:
		return value.None, nil
	case 1:
		if entries[0].C != 1 {
			return value.Value{}, fmt.Errorf("operators: make_scalar: single entry has count %d, want 1", entries[0].C)
		}
		return entries[0].V, nil
	default:
		return value.Value{}, fmt.Errorf("operators: make_scalar: %d distinct values, want at most 1: %w", len(entries), stepping.ErrNotScalar)
	}
}

// AddFn is Z-set arithmetic addition (spec §4.6: "Z-set arithmetic ... used
// inside integrate/differentiate").
func AddFn(a, b *zset.ZSet) *zset.ZSet { return a.Plus(b) }

// NegFn negates a Z-set's counts.
func NegFn(a *zset.ZSet) *zset.ZSet { return a.Neg() }
