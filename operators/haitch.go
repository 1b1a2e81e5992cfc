package operators

import (
	"github.com/syssam/stepping/value"
	"github.com/syssam/stepping/zset"
)

// HaitchFn is the "sign change" indicator (spec §4.6, Proposition 6.3): for
// each value appearing in either side, +1 when the running count crosses
// from <=0 to >0, -1 when it crosses from >0 to <=0, else 0 (dropped since
// Z-sets never store zero-count entries). Used to define distinct.
func HaitchFn(l, r *zset.ZSet) *zset.ZSet {
	rEntries := r.Iter(zset.MatchAll())
	changed := make([]value.Value, 0, len(rEntries))
	toCounts := map[string]int64{}
	for _, e := range rEntries {
		changed = append(changed, e.V)
		toCounts[value.IdentityHex(e.V)] = e.C
	}
	fromCounts := map[string]int64{}
	for _, e := range l.Iter(zset.MatchValues(changed...)) {
		fromCounts[value.IdentityHex(e.V)] = e.C
	}
	out := zset.New(r.Indexes()...)
	for _, v := range changed {
		id := value.IdentityHex(v)
		sign := signChange(fromCounts[id], toCounts[id])
		if sign != 0 {
			out = out.Plus(zset.Single(v, sign, r.Indexes()...))
		}
	}
	return out
}

func signChange(x, y int64) int64 {
	switch {
	case x <= 0 && x+y > 0:
		return 1
	case x > 0 && x+y <= 0:
		return -1
	default:
		return 0
	}
}
