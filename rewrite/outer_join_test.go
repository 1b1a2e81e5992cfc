package rewrite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/stepping/graph"
	"github.com/syssam/stepping/index"
	"github.com/syssam/stepping/memstore"
	"github.com/syssam/stepping/rewrite"
	"github.com/syssam/stepping/scheduler"
	"github.com/syssam/stepping/value"
	"github.com/syssam/stepping/zset"
)

func TestLowerOuterJoinPairsUnmatchedLeftWithNone(t *testing.T) {
	onLeft := index.Atom("left_key", "key", index.Asc, value.KindInt, func(v value.Value) value.Value {
		return v.Items()[0]
	})
	onRight := index.Atom("right_key", "key", index.Asc, value.KindInt, func(v value.Value) value.Value {
		return v.Items()[0]
	})

	b := graph.NewBuilder()
	left := b.Input("left")
	right := b.Input("right")
	joined := rewrite.LowerOuterJoin(b, "joined", left, right, onLeft, onRight)
	b.Output(joined)

	st := memstore.New()
	sch, err := scheduler.New(b.G, st)
	require.NoError(t, err)

	l1 := value.Tuple(value.Int(1), value.String("felix"))
	l2 := value.Tuple(value.Int(2), value.String("rex"))
	r1 := value.Tuple(value.Int(1), value.String("miaow"))

	out, err := sch.Step(context.Background(), []*zset.ZSet{
		zset.New().Plus(zset.Single(l1, 1)).Plus(zset.Single(l2, 1)),
		zset.Single(r1, 1),
	})
	require.NoError(t, err)

	matched := value.Pair(l1, r1)
	unmatched := value.Pair(l2, value.None)
	assert.Equal(t, int64(1), out[0].CountOf(matched))
	assert.Equal(t, int64(1), out[0].CountOf(unmatched))
	assert.Equal(t, 2, out[0].Len())
}
