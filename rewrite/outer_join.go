package rewrite

import (
	"github.com/syssam/stepping/graph"
	"github.com/syssam/stepping/index"
	"github.com/syssam/stepping/value"
)

// LowerOuterJoin wires a left-outer equi-join: every matched pair from
// graph.Builder.Join, plus every left row with no match on onRight paired
// with an absent right side (value.None), as Pair(v, None).
//
// Grounded on original_source/src/stepping/operators/incremental.py's
// outer_join: matched = join(l, r); matched_left = map(matched, p -> p.left);
// unmatched_left = l + (-matched_left); result = matched + map(unmatched_left,
// v -> Pair(v, None)). original_source builds this with five extra identity
// vertices purely to satisfy its Python type checker across Graph.connect
// boundaries — dropped here since graph.Builder wires vertices directly by
// Path with no such boundary to cross.
func LowerOuterJoin(b *graph.Builder, name string, l, r graph.Path, onLeft, onRight *index.Index, pairIndexes ...*index.Index) graph.Path {
	matched := b.Join(graph.NewPath(name, "matched").String(), l, r, onLeft, onRight, pairIndexes...)
	matchedLeft := b.Map(graph.NewPath(name, "matched_left").String(), matched, func(v value.Value) value.Value {
		return v.First()
	}, onLeft)
	negMatchedLeft := b.Neg(graph.NewPath(name, "neg_matched_left").String(), matchedLeft)
	unmatchedLeft := b.Add(graph.NewPath(name, "unmatched_left").String(), l, negMatchedLeft)
	unmatchedPairs := b.Map(graph.NewPath(name, "unmatched_pairs").String(), unmatchedLeft, func(v value.Value) value.Value {
		return value.Pair(v, value.None)
	}, pairIndexes...)
	return b.Add(name, matched, unmatchedPairs)
}
