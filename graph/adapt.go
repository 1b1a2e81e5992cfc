package graph

import (
	"github.com/syssam/stepping/value"
	"github.com/syssam/stepping/zset"
)

// asZSet unwraps a wire value known to carry a Z-set. Panics if v doesn't
// hold a Z-set — a graph invariant violation, not a runtime condition a
// caller can recover from (spec §3's type-agreement invariant is checked at
// construction time, so this should never fire against a validated graph).
func asZSet(v value.Value) *zset.ZSet {
	z, ok := v.AsZSet().(*zset.ZSet)
	if !ok {
		panic("graph: wire value is not an in-memory Z-set")
	}
	return z
}

// wrapZSet lifts a Z-set into the wire's value.Value representation.
func wrapZSet(z *zset.ZSet) value.Value { return value.ZSetValue(z) }
