package operators

import (
	"github.com/syssam/stepping/index"
	"github.com/syssam/stepping/zset"
)

// FirstNFn keeps the first n elements in ix's order, splitting the boundary
// entry's count when n falls inside it instead of dropping it outright
// (spec §4.6, grounded on the original engine's _first_n). z must declare
// ix.
func FirstNFn(z *zset.ZSet, ix *index.Index, n int64, outIndexes ...*index.Index) *zset.ZSet {
	out := zset.New(outIndexes...)
	if n <= 0 {
		return out
	}
	rows, err := z.IterByIndex(ix, zset.MatchAll())
	if err != nil {
		return out
	}
	var total int64
	for _, row := range rows {
		if row.C <= 0 {
			continue
		}
		total += row.C
		overshoot := total - n
		keep := row.C
		if overshoot > 0 {
			keep = row.C - overshoot
		}
		if keep > 0 {
			out = out.Plus(zset.Single(row.V, keep, outIndexes...))
		}
		if total >= n {
			break
		}
	}
	return out
}
