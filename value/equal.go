package value

// Equal reports structural equality between two values: same kind, same
// atom payload, or (for composites) pairwise-equal sub-structure. Tuple
// arity and set membership (independent of insertion order) are both
// accounted for.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNone:
		return true
	case KindInt:
		return a.i == b.i
	case KindFloat:
		return a.f == b.f
	case KindBool:
		return a.b == b.b
	case KindString:
		return a.s == b.s
	case KindDate, KindTimestamp:
		return a.t.Equal(b.t)
	case KindUUID:
		return a.u == b.u
	case KindEnum:
		return a.enumName == b.enumName && Equal(*a.enumVal, *b.enumVal)
	case KindTuple, KindVariadicTuple:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	case KindSet:
		if len(a.items) != len(b.items) {
			return false
		}
		used := make([]bool, len(b.items))
		for _, av := range a.items {
			found := false
			for j, bv := range b.items {
				if !used[j] && Equal(av, bv) {
					used[j] = true
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	case KindPair:
		return Equal(a.pair[0], b.pair[0]) && Equal(a.pair[1], b.pair[1])
	case KindRecord:
		ra, rb := a.record, b.record
		if ra.TypeName != rb.TypeName || len(ra.Fields) != len(rb.Fields) {
			return false
		}
		for i := range ra.Fields {
			if ra.Fields[i].Name != rb.Fields[i].Name {
				return false
			}
			if !Equal(ra.Fields[i].Value, rb.Fields[i].Value) {
				return false
			}
		}
		return true
	case KindZSet:
		ea, eb := a.zset.Entries(), b.zset.Entries()
		if len(ea) != len(eb) {
			return false
		}
		for i := range ea {
			if ea[i].C != eb[i].C || !Equal(ea[i].V, eb[i].V) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
