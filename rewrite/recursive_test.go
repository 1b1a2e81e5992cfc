package rewrite_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/stepping/graph"
	"github.com/syssam/stepping/operators"
	"github.com/syssam/stepping/rewrite"
	"github.com/syssam/stepping/value"
)

func TestRecursiveLiftRetagsInputAsIdentityDontRemove(t *testing.T) {
	b := graph.NewBuilder()
	in := b.Input("delta_in")
	doubled := b.Map("doubled", in, func(v value.Value) value.Value { return v })
	b.Output(doubled)

	v, err := rewrite.RecursiveLift("fix", b.G)
	require.NoError(t, err)

	assert.Equal(t, graph.KindIntegrateTilZero, v.Kind)
	assert.Same(t, b.G, v.Inner)
	assert.Equal(t, []value.Kind{value.KindZSet}, v.InputTypes)
	assert.Equal(t, value.KindZSet, v.OutputType)

	feed, ok := b.G.Vertex(in)
	require.True(t, ok)
	assert.Equal(t, operators.IdentityDontRemove, feed.OperatorKind)
}

func TestRecursiveLiftRejectsMultipleInputs(t *testing.T) {
	b := graph.NewBuilder()
	a := b.Input("a")
	bb := b.Input("b")
	joined := b.Add("joined", a, bb)
	b.Output(joined)

	_, err := rewrite.RecursiveLift("fix", b.G)
	require.Error(t, err)
}

func TestRecursiveLiftRejectsMultipleOutputs(t *testing.T) {
	b := graph.NewBuilder()
	in := b.Input("in")
	doubled := b.Map("doubled", in, func(v value.Value) value.Value { return v })
	b.Output(in)
	b.Output(doubled)

	_, err := rewrite.RecursiveLift("fix", b.G)
	require.Error(t, err)
}
