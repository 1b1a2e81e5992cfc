package operators

import "github.com/syssam/stepping/value"

// GenericGrouped is a key -> single-value mapping (spec §4.7 rule 2's
// Grouped<T,K>), distinct from Grouped in group.go which is specifically
// Grouped<ZSet<T>,K> for the group/flatten primitives. lift_grouped
// (package rewrite) threads a GenericGrouped through a lifted sub-graph's
// vertices, one per declared key, where T can be any wire type — including
// a Z-set, in which case a GenericGrouped and a Grouped carry the same
// information under different access patterns.
type GenericGrouped struct {
	values map[string]value.Value
	keys   map[string]value.Value
}

// NewGenericGrouped constructs an empty grouping.
func NewGenericGrouped() *GenericGrouped {
	return &GenericGrouped{values: map[string]value.Value{}, keys: map[string]value.Value{}}
}

// Get returns key's value and whether it is present.
func (g *GenericGrouped) Get(key value.Value) (value.Value, bool) {
	v, ok := g.values[value.IdentityHex(key)]
	return v, ok
}

// Set records key's value.
func (g *GenericGrouped) Set(key, v value.Value) {
	id := value.IdentityHex(key)
	g.values[id] = v
	g.keys[id] = key
}

// Keys returns the distinct keys present, in no particular order.
func (g *GenericGrouped) Keys() []value.Value {
	out := make([]value.Value, 0, len(g.keys))
	for _, k := range g.keys {
		out = append(out, k)
	}
	return out
}

// LiftUnaryFn applies f to every key's value (spec §4.7 rule 2): "a key
// missing on input fails explicitly — there is no zero for an arbitrary V".
func LiftUnaryFn(g *GenericGrouped, f func(value.Value) value.Value) *GenericGrouped {
	out := NewGenericGrouped()
	for _, k := range g.Keys() {
		v, ok := g.Get(k)
		if !ok {
			panic("operators: lift_grouped: key not in group")
		}
		out.Set(k, f(v))
	}
	return out
}

// LiftAddFn is per-key add with the annihilation laws 0+x=x, x+0=x (spec
// §4.7 rule 2) — a key present in only one operand passes through
// unchanged rather than invoking add against a synthesised zero.
func LiftAddFn(a, b *GenericGrouped, add func(value.Value, value.Value) value.Value) *GenericGrouped {
	out := NewGenericGrouped()
	seen := map[string]value.Value{}
	for _, k := range a.Keys() {
		seen[value.IdentityHex(k)] = k
	}
	for _, k := range b.Keys() {
		seen[value.IdentityHex(k)] = k
	}
	for _, k := range seen {
		av, aok := a.Get(k)
		bv, bok := b.Get(k)
		switch {
		case !aok && !bok:
			panic("operators: lift_grouped: key not in either group")
		case !aok:
			out.Set(k, bv)
		case !bok:
			out.Set(k, av)
		default:
			out.Set(k, add(av, bv))
		}
	}
	return out
}
