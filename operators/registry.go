// Package operators implements the closed, named set of primitive
// operators (spec §4.6): map, map_many, filter, reduce, make_set,
// make_scalar, add, neg, haitch, join, outer_join, first_n, group, flatten,
// plus the stateful delay/integrate/differentiate/distinct family whose
// store-facing half lives in the scheduler package.
//
// Every primitive is tagged with its OperatorKind via Register, mirroring
// the teacher's `@vertex(OperatorKind)` tag (compiler/gen/type.go) that
// lets the code generator recognize generator-relevant functions. The
// compiler front-end maps Builder method names to these Kind constants
// through its own table (compiler/compile.go's methodKind), not through
// Lookup.
package operators

import "fmt"

// Kind names one member of the closed operator set.
type Kind string

const (
	Map                Kind = "map"
	MapMany            Kind = "map_many"
	Filter             Kind = "filter"
	Reduce             Kind = "reduce"
	MakeSet            Kind = "make_set"
	MakeScalar         Kind = "make_scalar"
	Add                Kind = "add"
	Neg                Kind = "neg"
	Haitch             Kind = "haitch"
	Join               Kind = "join"
	OuterJoin          Kind = "outer_join"
	FirstN             Kind = "first_n"
	Group              Kind = "group"
	Flatten            Kind = "flatten"
	Delay              Kind = "delay"
	Integrate          Kind = "integrate"
	Differentiate      Kind = "differentiate"
	Distinct           Kind = "distinct"
	Identity           Kind = "identity"
	IdentityDontRemove Kind = "identity_dont_remove"
	IntegrateTilZero   Kind = "integrate_til_zero"
	LiftGrouped        Kind = "lift_grouped"
	Cache              Kind = "cache"
)

// Arity describes how many typed ports an operator's vertex has.
type Arity uint8

const (
	Unary Arity = iota
	Binary
)

// Descriptor records an operator's arity, as returned by Lookup and
// MustLookup.
type Descriptor struct {
	Kind  Kind
	Arity Arity
}

var registry = map[Kind]Descriptor{}

// Register records kind's arity in the global operator registry. Called
// for every member of the closed set from this file's init(), mirroring
// the teacher's per-function @vertex tag.
func Register(kind Kind, arity Arity) Descriptor {
	d := Descriptor{Kind: kind, Arity: arity}
	registry[kind] = d
	return d
}

// Lookup returns the descriptor for a registered operator kind.
func Lookup(kind Kind) (Descriptor, bool) {
	d, ok := registry[kind]
	return d, ok
}

// MustLookup is Lookup but panics (an internal-consistency bug, not a user
// error) if kind was never registered.
func MustLookup(kind Kind) Descriptor {
	d, ok := registry[kind]
	if !ok {
		panic(fmt.Sprintf("operators: kind %q never registered", kind))
	}
	return d
}

func init() {
	Register(Map, Unary)
	Register(MapMany, Unary)
	Register(Filter, Unary)
	Register(Reduce, Unary)
	Register(MakeSet, Unary)
	Register(MakeScalar, Unary)
	Register(Add, Binary)
	Register(Neg, Unary)
	Register(Haitch, Binary)
	Register(Join, Binary)
	Register(OuterJoin, Binary)
	Register(FirstN, Unary)
	Register(Group, Unary)
	Register(Flatten, Unary)
	Register(Delay, Unary)
	Register(Integrate, Unary)
	Register(Differentiate, Unary)
	Register(Distinct, Unary)
	Register(Identity, Unary)
	Register(IdentityDontRemove, Unary)
	Register(IntegrateTilZero, Unary)
	Register(LiftGrouped, Unary)
	Register(Cache, Unary)
}
