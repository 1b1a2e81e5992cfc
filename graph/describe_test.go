package graph_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/stepping/graph"
	"github.com/syssam/stepping/memstore"
	"github.com/syssam/stepping/value"
	"github.com/syssam/stepping/zset"
)

func TestDescribeMentionsVertexAndOperatorNames(t *testing.T) {
	b := graph.NewBuilder()
	in := b.Input("numbers")
	doubled := b.Map("doubled", in, func(v value.Value) value.Value { return v })
	b.Output(doubled)

	out := graph.Describe(b.G)
	assert.Contains(t, out, "numbers")
	assert.Contains(t, out, "doubled")
	assert.Contains(t, out, "map")
	assert.Contains(t, out, "identity")
}

func TestDescribeAnnotatesDelayVertices(t *testing.T) {
	b := graph.NewBuilder()
	in := b.Input("numbers")
	integrated := b.Integrate("running", in)
	b.Output(integrated)

	out := graph.Describe(b.G)
	assert.True(t, strings.Contains(out, "indexes: 0"))
}

func TestDescribeStoreAppendsDelayCellSizes(t *testing.T) {
	b := graph.NewBuilder()
	in := b.Input("numbers")
	integrated := b.Integrate("running", in)
	b.Output(integrated)

	st := memstore.New()
	for _, v := range b.G.Vertices() {
		require.NoError(t, st.Allocate(v))
	}
	delayPath := graph.NewPath("running", "delayed")
	require.NoError(t, st.Set(delayPath, zset.Single(value.Int(1), 1)))
	require.NoError(t, st.Inc())

	out := graph.DescribeStore(b.G, st)
	assert.Contains(t, out, "store contents:")
	assert.Contains(t, out, "running.delayed")
	assert.Contains(t, out, "1 rows")
}

func TestDescribeStoreReportsUnallocatedVertexError(t *testing.T) {
	b := graph.NewBuilder()
	in := b.Input("numbers")
	integrated := b.Integrate("running", in)
	b.Output(integrated)

	st := memstore.New()
	out := graph.DescribeStore(b.G, st)
	assert.Contains(t, out, "running.delayed")
	assert.Contains(t, out, "never allocated")
}
