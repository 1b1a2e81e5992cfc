package operators

import (
	"github.com/syssam/stepping/index"
	"github.com/syssam/stepping/value"
	"github.com/syssam/stepping/zset"
)

// JoinFn is the indexed equi-join (spec §4.6): yields pairs with the
// product of counts. If the right side already declares onRight as one of
// its indexes, the join is run the other way round and the output pairs
// remapped, to scan through the side that's actually indexed.
func JoinFn(l, r *zset.ZSet, onLeft, onRight *index.Index, pairIndexes ...*index.Index) *zset.ZSet {
	if declares(r, onRight) && !declares(l, onLeft) {
		swapped := JoinFn(r, l, onRight, onLeft)
		return MapFn(swapped, func(p value.Value) value.Value {
			return value.Pair(p.Second(), p.First())
		}, pairIndexes...)
	}

	out := zset.New(pairIndexes...)
	if l.Len() == 0 || r.Len() == 0 {
		return out
	}

	type leftRow struct {
		v value.Value
		c int64
	}
	byKey := map[string][]leftRow{}
	if declares(l, onLeft) {
		rightKeys := make([]value.Value, 0, r.Len())
		for _, e := range r.Iter(zset.MatchAll()) {
			rightKeys = append(rightKeys, onRight.KeyOf(e.V))
		}
		rows, _ := l.IterByIndex(onLeft, zset.MatchValues(rightKeys...))
		for _, row := range rows {
			id := value.IdentityHex(row.Key)
			byKey[id] = append(byKey[id], leftRow{row.V, row.C})
		}
	} else {
		for _, e := range l.Iter(zset.MatchAll()) {
			id := value.IdentityHex(onLeft.KeyOf(e.V))
			byKey[id] = append(byKey[id], leftRow{e.V, e.C})
		}
	}

	for _, e := range r.Iter(zset.MatchAll()) {
		id := value.IdentityHex(onRight.KeyOf(e.V))
		for _, lr := range byKey[id] {
			newCount := lr.c * e.C
			if newCount != 0 {
				out = out.Plus(zset.Single(value.Pair(lr.v, e.V), newCount, pairIndexes...))
			}
		}
	}
	return out
}

func declares(z *zset.ZSet, ix *index.Index) bool {
	for _, d := range z.Indexes() {
		if d.Equal(ix) {
			return true
		}
	}
	return false
}
