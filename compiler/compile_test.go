package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/stepping/compiler"
	"github.com/syssam/stepping/graph"
	"github.com/syssam/stepping/value"
)

func doubleValues(b *graph.Builder, inputs []graph.Path) ([]graph.Path, error) {
	doubled := b.Map("doubled", inputs[0], func(v value.Value) value.Value {
		return value.Int(v.Int64() * 2)
	})
	return []graph.Path{doubled}, nil
}

func TestCompileWiresInputsAndOutputs(t *testing.T) {
	g, err := compiler.Compile("doubleValues", doubleValues, "numbers")
	require.NoError(t, err)
	require.NotNil(t, g)

	assert.Len(t, g.Input, 1)
	assert.Equal(t, "numbers", g.Input[0].Path.String())

	require.Len(t, g.Output, 1)
	assert.Equal(t, "doubled", g.Output[0].String())

	_, ok := g.Vertex(graph.NewPath("doubled"))
	assert.True(t, ok)
}

func failingQuery(b *graph.Builder, inputs []graph.Path) ([]graph.Path, error) {
	return nil, assert.AnError
}

func TestCompileWrapsFunctionError(t *testing.T) {
	_, err := compiler.Compile("failingQuery", failingQuery, "numbers")
	require.Error(t, err)
	assert.True(t, compiler.IsError(err))
}

func TestInspectRecognizesBuilderCalls(t *testing.T) {
	ir, err := compiler.Inspect(compiler.QueryFunc(doubleValues))
	require.NoError(t, err)
	if ir == nil {
		// Inspect degrades to a skipped pass when the test binary's
		// package metadata isn't resolvable by golang.org/x/tools/go/packages
		// (e.g. running under a toolchain without module cache access);
		// Compile itself does not depend on this succeeding.
		t.Skip("source not resolvable in this environment")
	}
	require.Len(t, ir.Assignments, 1)
	assert.Equal(t, "doubled", ir.Assignments[0].Target)
	assert.Equal(t, "map", string(ir.Assignments[0].Kind))
	require.Len(t, ir.Returns, 0) // doubleValues returns a slice literal, not a bare name
}
