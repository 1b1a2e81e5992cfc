package scheduler_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/stepping"
	"github.com/syssam/stepping/graph"
	"github.com/syssam/stepping/memstore"
	"github.com/syssam/stepping/rewrite"
	"github.com/syssam/stepping/scheduler"
	"github.com/syssam/stepping/value"
	"github.com/syssam/stepping/zset"
)

func TestStepRejectsWrongInputCount(t *testing.T) {
	b := graph.NewBuilder()
	in := b.Input("in")
	b.Output(in)

	sch, err := scheduler.New(b.G, memstore.New())
	require.NoError(t, err)

	_, err = sch.Step(context.Background(), []*zset.ZSet{})
	require.Error(t, err)
}

func TestStepDelayOutputsPriorStepInput(t *testing.T) {
	b := graph.NewBuilder()
	in := b.Input("in")
	delayed := b.Delay("delayed", in)
	b.Output(delayed)

	sch, err := scheduler.New(b.G, memstore.New())
	require.NoError(t, err)

	out, err := sch.Step(context.Background(), []*zset.ZSet{zset.Single(value.Int(1), 1)})
	require.NoError(t, err)
	assert.Equal(t, 0, out[0].Len(), "delay's output at step 0 is the declared zero")

	out, err = sch.Step(context.Background(), []*zset.ZSet{zset.Single(value.Int(2), 1)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), out[0].CountOf(value.Int(1)))
	assert.Equal(t, int64(0), out[0].CountOf(value.Int(2)))
}

func TestNewRejectsInvalidGraph(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddVertex(&graph.Vertex{
		Path: graph.NewPath("a"), Kind: graph.KindUnary,
		Unary:      func(v value.Value) value.Value { return v },
		InputTypes: []value.Kind{value.KindZSet}, OutputType: value.KindInt,
	}))
	require.NoError(t, g.AddVertex(&graph.Vertex{
		Path: graph.NewPath("b"), Kind: graph.KindUnary,
		Unary:      func(v value.Value) value.Value { return v },
		InputTypes: []value.Kind{value.KindZSet}, OutputType: value.KindZSet,
	}))
	require.NoError(t, g.AddEdge(graph.NewPath("a"), graph.NewPath("b"), 0))

	_, err := scheduler.New(g, memstore.New())
	require.Error(t, err, "a's output type (int) disagrees with b's declared input type (zset)")
}

func TestNewRejectsUnbrokenCycle(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddVertex(&graph.Vertex{
		Path: graph.NewPath("a"), Kind: graph.KindUnary,
		Unary:      func(v value.Value) value.Value { return v },
		InputTypes: []value.Kind{value.KindZSet}, OutputType: value.KindZSet,
	}))
	require.NoError(t, g.AddVertex(&graph.Vertex{
		Path: graph.NewPath("b"), Kind: graph.KindUnary,
		Unary:      func(v value.Value) value.Value { return v },
		InputTypes: []value.Kind{value.KindZSet}, OutputType: value.KindZSet,
	}))
	require.NoError(t, g.AddEdge(graph.NewPath("a"), graph.NewPath("b"), 0))
	require.NoError(t, g.AddEdge(graph.NewPath("b"), graph.NewPath("a"), 0))

	_, err := scheduler.New(g, memstore.New())
	require.Error(t, err)
}

// buildCountdownFix wires a recursive sub-graph whose single step maps each
// live element n -> n-1 and keeps only those still positive, so integrating
// it to a fixpoint from {n:1} unrolls into exactly n non-empty rounds.
func buildCountdownFix(t *testing.T, name string) *graph.Vertex {
	t.Helper()
	inner := graph.NewBuilder()
	in := inner.Input("n")
	decremented := inner.Map("decremented", in, func(v value.Value) value.Value {
		return value.Int(v.Int64() - 1)
	})
	positive := inner.Filter("positive", decremented, func(v value.Value) bool {
		return v.Int64() > 0
	})
	inner.Output(positive)

	fix, err := rewrite.RecursiveLift(name, inner.G)
	require.NoError(t, err)
	return fix
}

func TestRunToFixpointAccumulatesAcrossRounds(t *testing.T) {
	b := graph.NewBuilder()
	in := b.Input("in")
	fix := buildCountdownFix(t, "countdown")
	require.NoError(t, b.G.AddVertex(fix))
	require.NoError(t, b.G.AddEdge(in, fix.Path, 0))
	b.Output(fix.Path)

	sch, err := scheduler.New(b.G, memstore.New())
	require.NoError(t, err)

	out, err := sch.Step(context.Background(), []*zset.ZSet{zset.Single(value.Int(3), 1)})
	require.NoError(t, err)

	// starting delta {3}, then {2}, then {1}: total = {3:1, 2:1, 1:1}
	assert.Equal(t, int64(1), out[0].CountOf(value.Int(3)))
	assert.Equal(t, int64(1), out[0].CountOf(value.Int(2)))
	assert.Equal(t, int64(1), out[0].CountOf(value.Int(1)))
	assert.Equal(t, 3, out[0].Len())
}

func TestRunToFixpointStopsImmediatelyOnEmptyDelta(t *testing.T) {
	b := graph.NewBuilder()
	in := b.Input("in")
	fix := buildCountdownFix(t, "countdown")
	require.NoError(t, b.G.AddVertex(fix))
	require.NoError(t, b.G.AddEdge(in, fix.Path, 0))
	b.Output(fix.Path)

	sch, err := scheduler.New(b.G, memstore.New())
	require.NoError(t, err)

	out, err := sch.Step(context.Background(), []*zset.ZSet{zset.New()})
	require.NoError(t, err)
	assert.Equal(t, 0, out[0].Len())
}

// buildNeverConvergingFix always re-emits its input unchanged, so it never
// reaches an empty delta — used to confirm runToFixpoint's iteration cap
// (scheduler.MaxFixpointIterations) actually fires rather than looping
// forever.
func buildNeverConvergingFix(t *testing.T, name string) *graph.Vertex {
	t.Helper()
	inner := graph.NewBuilder()
	in := inner.Input("n")
	echoed := inner.Map("echoed", in, func(v value.Value) value.Value { return v })
	inner.Output(echoed)

	fix, err := rewrite.RecursiveLift(name, inner.G)
	require.NoError(t, err)
	return fix
}

func TestRunToFixpointExceedsIterationCap(t *testing.T) {
	b := graph.NewBuilder()
	in := b.Input("in")
	fix := buildNeverConvergingFix(t, "loop")
	require.NoError(t, b.G.AddVertex(fix))
	require.NoError(t, b.G.AddEdge(in, fix.Path, 0))
	b.Output(fix.Path)

	sch, err := scheduler.New(b.G, memstore.New())
	require.NoError(t, err)

	_, err = sch.Step(context.Background(), []*zset.ZSet{zset.Single(value.Int(1), 1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeded")
	assert.ErrorIs(t, err, stepping.ErrFixpointExceeded)
}

// TestRunToFixpointRespectsConfiguredCap confirms a low Config.FixpointIterationCap
// fires well before the package default (scheduler.MaxFixpointIterations),
// i.e. that New actually threads Cfg through to runToFixpoint rather than
// always using the hardcoded constant.
func TestRunToFixpointRespectsConfiguredCap(t *testing.T) {
	b := graph.NewBuilder()
	in := b.Input("in")
	fix := buildCountdownFix(t, "countdown")
	require.NoError(t, b.G.AddVertex(fix))
	require.NoError(t, b.G.AddEdge(in, fix.Path, 0))
	b.Output(fix.Path)

	sch, err := scheduler.New(b.G, memstore.New(), stepping.Config{FixpointIterationCap: 2})
	require.NoError(t, err)

	// Countdown from 5 needs 5 rounds to empty out; capped at 2 it must fail.
	_, err = sch.Step(context.Background(), []*zset.ZSet{zset.Single(value.Int(5), 1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeded 2 iterations")
}

func TestEvaluateVertexRejectsUnknownKind(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddVertex(&graph.Vertex{
		Path: graph.NewPath("weird"), Kind: graph.Kind(99),
		InputTypes: []value.Kind{}, OutputType: value.KindZSet,
	}))
	g.Output = []graph.Path{graph.NewPath("weird")}

	sch, err := scheduler.New(g, memstore.New())
	require.NoError(t, err)
	_, err = sch.Step(context.Background(), nil)
	require.Error(t, err)
}
