package zset_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/stepping/index"
	"github.com/syssam/stepping/value"
	"github.com/syssam/stepping/zset"
)

func TestSingleAndCountOf(t *testing.T) {
	z := zset.Single(value.Int(3), 2)
	assert.Equal(t, int64(2), z.CountOf(value.Int(3)))
	assert.Equal(t, int64(0), z.CountOf(value.Int(4)))
	assert.Equal(t, 1, z.Len())
}

func TestSingleWithZeroCountIsEmpty(t *testing.T) {
	z := zset.Single(value.Int(3), 0)
	assert.Equal(t, 0, z.Len())
	assert.Equal(t, int64(0), z.CountOf(value.Int(3)))
}

func TestPlusAccumulatesAndCancelsToZero(t *testing.T) {
	a := zset.Single(value.Int(3), 1)
	b := zset.Single(value.Int(3), -1)
	out := a.Plus(b)
	assert.Equal(t, 0, out.Len(), "a count that nets to zero is removed, not kept at 0 (spec: no entry has multiplicity 0)")

	c := zset.Single(value.Int(3), 1).Plus(zset.Single(value.Int(3), 1))
	assert.Equal(t, int64(2), c.CountOf(value.Int(3)))
}

func TestPlusDoesNotMutateReceiver(t *testing.T) {
	a := zset.Single(value.Int(3), 1)
	_ = a.Plus(zset.Single(value.Int(4), 1))
	assert.Equal(t, 1, a.Len(), "Plus must not mutate its receiver")
}

func TestNeg(t *testing.T) {
	a := zset.New().Plus(zset.Single(value.Int(1), 2)).Plus(zset.Single(value.Int(2), 3))
	out := a.Neg()
	assert.Equal(t, int64(-2), out.CountOf(value.Int(1)))
	assert.Equal(t, int64(-3), out.CountOf(value.Int(2)))
}

func TestScale(t *testing.T) {
	a := zset.Single(value.Int(1), 2)
	assert.Equal(t, int64(6), a.Scale(3).CountOf(value.Int(1)))
	assert.Equal(t, 0, a.Scale(0).Len(), "scale by 0 yields the empty Z-set")
}

func TestEntriesImplementsValueZSetLike(t *testing.T) {
	z := zset.New().Plus(zset.Single(value.Int(1), 1)).Plus(zset.Single(value.Int(2), 2))
	entries := z.Entries()
	assert.Len(t, entries, 2)
	total := int64(0)
	for _, e := range entries {
		total += e.C
	}
	assert.Equal(t, int64(3), total)
}

func TestIterMatchValuesRestrictsToGivenSet(t *testing.T) {
	z := zset.New().
		Plus(zset.Single(value.Int(1), 1)).
		Plus(zset.Single(value.Int(2), 1)).
		Plus(zset.Single(value.Int(3), 1))

	out := z.Iter(zset.MatchValues(value.Int(1), value.Int(3), value.Int(99)))
	require.Len(t, out, 2, "a requested value absent from the Z-set is silently skipped")
	got := map[int64]int64{}
	for _, e := range out {
		got[e.V.Int64()] = e.C
	}
	assert.Equal(t, map[int64]int64{1: 1, 3: 1}, got)
}

func TestIterAllOrdersByFirstDeclaredIndex(t *testing.T) {
	byVal := index.Atom("by_val", "v", index.Desc, value.KindInt, func(v value.Value) value.Value { return v })
	z := zset.New(byVal).
		Plus(zset.Single(value.Int(1), 1, byVal)).
		Plus(zset.Single(value.Int(3), 1, byVal)).
		Plus(zset.Single(value.Int(2), 1, byVal))

	out := z.Iter(zset.MatchAll())
	require.Len(t, out, 3)
	var order []int64
	for _, e := range out {
		order = append(order, e.V.Int64())
	}
	assert.Equal(t, []int64{3, 2, 1}, order, "descending index order")
}

func TestIterByIndexOrdersAscendingByKey(t *testing.T) {
	byLen := index.Atom("by_len", "len", index.Asc, value.KindInt, func(v value.Value) value.Value {
		return value.Int(int64(len(v.Str())))
	})
	z := zset.New(byLen).
		Plus(zset.Single(value.String("ccc"), 1, byLen)).
		Plus(zset.Single(value.String("a"), 1, byLen)).
		Plus(zset.Single(value.String("bb"), 1, byLen))

	out, err := z.IterByIndex(byLen, zset.MatchAll())
	require.NoError(t, err)
	require.Len(t, out, 3)
	var lens []int64
	for _, e := range out {
		lens = append(lens, e.Key.Int64())
	}
	assert.Equal(t, []int64{1, 2, 3}, lens)
}

func TestIterByIndexRejectsUndeclaredIndex(t *testing.T) {
	declared := index.Atom("declared", "v", index.Asc, value.KindInt, func(v value.Value) value.Value { return v })
	undeclared := index.Atom("undeclared", "v", index.Asc, value.KindInt, func(v value.Value) value.Value { return v })
	z := zset.New(declared).Plus(zset.Single(value.Int(1), 1, declared))

	_, err := z.IterByIndex(undeclared, zset.MatchAll())
	require.Error(t, err)
}

func TestIterByIndexMatchValuesFiltersByKey(t *testing.T) {
	byLen := index.Atom("by_len", "len", index.Asc, value.KindInt, func(v value.Value) value.Value {
		return value.Int(int64(len(v.Str())))
	})
	z := zset.New(byLen).
		Plus(zset.Single(value.String("a"), 1, byLen)).
		Plus(zset.Single(value.String("bb"), 1, byLen)).
		Plus(zset.Single(value.String("ccc"), 1, byLen))

	out, err := z.IterByIndex(byLen, zset.MatchValues(value.Int(2)))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "bb", out[0].V.Str())
}

func TestStringRendersSortedDump(t *testing.T) {
	z := zset.New().Plus(zset.Single(value.Int(1), 1)).Plus(zset.Single(value.Int(2), 2))
	s := z.String()
	assert.Contains(t, s, "{")
	assert.Contains(t, s, "}")
}
