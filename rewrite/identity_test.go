package rewrite_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/stepping/graph"
	"github.com/syssam/stepping/rewrite"
	"github.com/syssam/stepping/value"
)

func TestRemoveIdentitiesElidesInteriorIdentity(t *testing.T) {
	b := graph.NewBuilder()
	in := b.Input("in")
	doubled := b.Map("doubled", in, func(v value.Value) value.Value { return v })
	// an extra identity vertex with no special boundary role
	passthrough := graph.NewPath("passthrough")
	require.NoError(t, b.G.AddVertex(&graph.Vertex{
		Path: passthrough, Kind: graph.KindUnary,
		Unary:      func(v value.Value) value.Value { return v },
		InputTypes: []value.Kind{value.KindZSet}, OutputType: value.KindZSet,
	}))
	require.NoError(t, b.G.AddEdge(doubled, passthrough, 0))
	out := graph.NewPath("out")
	require.NoError(t, b.G.AddVertex(&graph.Vertex{
		Path: out, Kind: graph.KindUnary,
		Unary:      func(v value.Value) value.Value { return v },
		InputTypes: []value.Kind{value.KindZSet}, OutputType: value.KindZSet,
	}))
	require.NoError(t, b.G.AddEdge(passthrough, out, 0))
	b.Output(out)

	// passthrough has no declared OperatorKind (identity), so it's not a
	// removal candidate until explicitly tagged — match it up with the
	// registry's tag the way Builder.Input does.
	v, _ := b.G.Vertex(passthrough)
	v.OperatorKind = "identity"

	ng, err := rewrite.RemoveIdentities(b.G)
	require.NoError(t, err)
	assert.NotSame(t, b.G, ng)

	_, ok := ng.Vertex(passthrough)
	assert.False(t, ok, "passthrough identity should have been elided")

	preds := ng.Predecessors(out)
	require.Len(t, preds, 1)
	assert.Equal(t, doubled.String(), preds[0].Src.String())
}

func TestRemoveIdentitiesPreservesBoundaryIdentity(t *testing.T) {
	b := graph.NewBuilder()
	in := b.Input("in") // the input vertex IS an identity, but it's a declared boundary
	b.Output(in)

	ng, err := rewrite.RemoveIdentities(b.G)
	require.NoError(t, err)
	assert.Same(t, b.G, ng, "a boundary identity must not be removed")
}

func TestTilStableConvergesOnIdentityFreeGraph(t *testing.T) {
	b := graph.NewBuilder()
	in := b.Input("in")
	p1 := graph.NewPath("p1")
	require.NoError(t, b.G.AddVertex(&graph.Vertex{
		Path: p1, Kind: graph.KindUnary, OperatorKind: "identity",
		Unary:      func(v value.Value) value.Value { return v },
		InputTypes: []value.Kind{value.KindZSet}, OutputType: value.KindZSet,
	}))
	require.NoError(t, b.G.AddEdge(in, p1, 0))
	p2 := graph.NewPath("p2")
	require.NoError(t, b.G.AddVertex(&graph.Vertex{
		Path: p2, Kind: graph.KindUnary, OperatorKind: "identity",
		Unary:      func(v value.Value) value.Value { return v },
		InputTypes: []value.Kind{value.KindZSet}, OutputType: value.KindZSet,
	}))
	require.NoError(t, b.G.AddEdge(p1, p2, 0))
	out := graph.NewPath("out")
	require.NoError(t, b.G.AddVertex(&graph.Vertex{
		Path: out, Kind: graph.KindUnary,
		Unary:      func(v value.Value) value.Value { return v },
		InputTypes: []value.Kind{value.KindZSet}, OutputType: value.KindZSet,
	}))
	require.NoError(t, b.G.AddEdge(p2, out, 0))
	b.Output(out)

	finalize := rewrite.TilStable(rewrite.RemoveIdentities)
	ng, err := finalize(b.G)
	require.NoError(t, err)

	_, ok := ng.Vertex(p1)
	assert.False(t, ok)
	_, ok = ng.Vertex(p2)
	assert.False(t, ok)
	preds := ng.Predecessors(out)
	require.Len(t, preds, 1)
	assert.Equal(t, in.String(), preds[0].Src.String())
}
