package graph

import (
	"fmt"

	"github.com/syssam/stepping/index"
	"github.com/syssam/stepping/operators"
	"github.com/syssam/stepping/value"
)

// Builder accumulates vertices into a Graph under a path prefix, mirroring
// the compiler front-end's recursive per-assignment compilation (spec
// §4.5): each call wires one or more vertices and returns the Path(s) a
// caller should feed into subsequent calls. A hand-written query can use a
// Builder directly; the AST front-end (package compiler) produces the same
// calls mechanically from a query function's source.
type Builder struct {
	G *Graph
}

// NewBuilder wraps an empty Graph.
func NewBuilder() *Builder { return &Builder{G: New()} }

// Input declares a fresh input port, returning its identity vertex's path
// (spec §3: "each input port is a fresh per-input identity vertex").
func (b *Builder) Input(name string) Path {
	p := NewPath(name)
	b.G.AddVertex(&Vertex{
		Path: p, Kind: KindUnary, OperatorKind: operators.Identity,
		Unary:      func(v value.Value) value.Value { return v },
		InputTypes: []value.Kind{value.KindZSet}, OutputType: value.KindZSet,
	})
	b.G.Input = append(b.G.Input, InputPort{Path: p, Port: 0})
	return p
}

// Output declares p as a surfaced output (spec §3's ordered output list).
func (b *Builder) Output(p Path) { b.G.Output = append(b.G.Output, p) }

func (b *Builder) unary(name string, kind operators.Kind, in Path, fn func(value.Value) value.Value) Path {
	p := NewPath(name)
	b.G.AddVertex(&Vertex{
		Path: p, Kind: KindUnary, OperatorKind: kind, Unary: fn,
		InputTypes: []value.Kind{value.KindZSet}, OutputType: value.KindZSet,
	})
	b.G.AddEdge(in, p, 0)
	return p
}

func (b *Builder) binary(name string, kind operators.Kind, l, r Path, fn func(value.Value, value.Value) value.Value) Path {
	p := NewPath(name)
	b.G.AddVertex(&Vertex{
		Path: p, Kind: KindBinary, OperatorKind: kind, Binary: fn,
		InputTypes: []value.Kind{value.KindZSet, value.KindZSet}, OutputType: value.KindZSet,
	})
	b.G.AddEdge(l, p, 0)
	b.G.AddEdge(r, p, 1)
	return p
}

// Map wires a map(z, f) vertex (spec §4.6).
func (b *Builder) Map(name string, in Path, f func(value.Value) value.Value, outIndexes ...*index.Index) Path {
	return b.unary(name, operators.Map, in, func(v value.Value) value.Value {
		return wrapZSet(operators.MapFn(asZSet(v), f, outIndexes...))
	})
}

// MapMany wires a map_many(z, f) vertex.
func (b *Builder) MapMany(name string, in Path, f func(value.Value) []value.Value, outIndexes ...*index.Index) Path {
	return b.unary(name, operators.MapMany, in, func(v value.Value) value.Value {
		return wrapZSet(operators.MapManyFn(asZSet(v), f, outIndexes...))
	})
}

// Filter wires a filter(z, p) vertex.
func (b *Builder) Filter(name string, in Path, p func(value.Value) bool) Path {
	return b.unary(name, operators.Filter, in, func(v value.Value) value.Value {
		return wrapZSet(operators.FilterFn(asZSet(v), p))
	})
}

// Join wires an indexed equi-join vertex.
func (b *Builder) Join(name string, l, r Path, onLeft, onRight *index.Index, pairIndexes ...*index.Index) Path {
	return b.binary(name, operators.Join, l, r, func(lv, rv value.Value) value.Value {
		return wrapZSet(operators.JoinFn(asZSet(lv), asZSet(rv), onLeft, onRight, pairIndexes...))
	})
}

// Add wires a Z-set arithmetic addition vertex.
func (b *Builder) Add(name string, l, r Path) Path {
	return b.binary(name, operators.Add, l, r, func(lv, rv value.Value) value.Value {
		return wrapZSet(operators.AddFn(asZSet(lv), asZSet(rv)))
	})
}

// Neg wires a Z-set negation vertex.
func (b *Builder) Neg(name string, in Path) Path {
	return b.unary(name, operators.Neg, in, func(v value.Value) value.Value {
		return wrapZSet(operators.NegFn(asZSet(v)))
	})
}

// Haitch wires a sign-change vertex (spec §4.6, Proposition 6.3).
func (b *Builder) Haitch(name string, l, r Path) Path {
	return b.binary(name, operators.Haitch, l, r, func(lv, rv value.Value) value.Value {
		return wrapZSet(operators.HaitchFn(asZSet(lv), asZSet(rv)))
	})
}

// FirstN wires a first_n(z, index, n) vertex.
func (b *Builder) FirstN(name string, in Path, ix *index.Index, n int64, outIndexes ...*index.Index) Path {
	return b.unary(name, operators.FirstN, in, func(v value.Value) value.Value {
		return wrapZSet(operators.FirstNFn(asZSet(v), ix, n, outIndexes...))
	})
}

// Delay wires a delay vertex (spec §4.6/§4.8): its output at step k equals
// its input at step k-1 (the declared zero at step 0). indexes declares the
// persisted Z-set's index set (spec §3's Store allocation contract).
func (b *Builder) Delay(name string, in Path, indexes ...*index.Index) Path {
	p := NewPath(name)
	b.G.AddVertex(&Vertex{
		Path: p, Kind: KindDelay, Indexes: indexes,
		InputTypes: []value.Kind{value.KindZSet}, OutputType: value.KindZSet,
	})
	b.G.AddEdge(in, p, 0)
	return p
}

// Integrate wires integrate(a) = delayed + a where delayed = delay(integrated)
// (spec §4.6) — a genuine cycle (integrated -> delayed -> integrated), which
// is exactly why delay is modelled as a back-edge the scheduler treats as a
// source rather than a normal predecessor (spec §4.8/§9).
func (b *Builder) Integrate(name string, in Path, indexes ...*index.Index) Path {
	delayed := NewPath(name, "delayed")
	integrated := NewPath(name, "integrated")
	b.G.AddVertex(&Vertex{
		Path: delayed, Kind: KindDelay, Indexes: indexes,
		InputTypes: []value.Kind{value.KindZSet}, OutputType: value.KindZSet,
	})
	b.G.AddVertex(&Vertex{
		Path: integrated, Kind: KindBinary, OperatorKind: operators.Add,
		Binary: func(lv, rv value.Value) value.Value {
			return wrapZSet(operators.AddFn(asZSet(lv), asZSet(rv)))
		},
		InputTypes: []value.Kind{value.KindZSet, value.KindZSet}, OutputType: value.KindZSet,
	})
	b.G.AddEdge(integrated, delayed, 0)
	b.G.AddEdge(delayed, integrated, 0)
	b.G.AddEdge(in, integrated, 1)
	return integrated
}

// Differentiate wires differentiate(a) = a + (-delay(a)) (spec §4.6).
func (b *Builder) Differentiate(name string, in Path, indexes ...*index.Index) Path {
	delayed := b.Delay(NewPath(name, "delayed").String(), in, indexes...)
	negated := b.Neg(NewPath(name, "negated").String(), delayed)
	return b.Add(name, in, negated)
}

// Distinct wires distinct(a) = haitch(delay(integrate(a)), a): the running
// total through the previous step, haitch'd against this step's delta
// (spec §4.6, Proposition 6.3).
func (b *Builder) Distinct(name string, in Path, indexes ...*index.Index) Path {
	integrated := b.Integrate(NewPath(name, "integrated").String(), in, indexes...)
	priorTotal := b.Delay(NewPath(name, "prior").String(), integrated, indexes...)
	return b.Haitch(name, priorTotal, in)
}

// Reduce wires a reduce(z, zero, pick) vertex (spec §4.6). Its output is a
// scalar int atom rather than a Z-set — InputTypes/OutputType record that
// so TypeAgreementRule rejects wiring it straight into a Z-set-typed port
// without an intervening make_set.
func (b *Builder) Reduce(name string, in Path, zero func() int64, pick func(value.Value) int64) Path {
	p := NewPath(name)
	b.G.AddVertex(&Vertex{
		Path: p, Kind: KindUnary, OperatorKind: operators.Reduce,
		Unary: func(v value.Value) value.Value {
			return value.Int(operators.ReduceFn(asZSet(v), zero, pick))
		},
		InputTypes: []value.Kind{value.KindZSet}, OutputType: value.KindInt,
	})
	b.G.AddEdge(in, p, 0)
	return p
}

// MakeSet wires a make_set(v) vertex: singleton-ifies a scalar wire value
// into a one-element Z-set with count 1 (spec §4.6). make_set's only
// grounded producer in this engine is reduce (an int64 scalar), so its
// declared input type is pinned to KindInt rather than a type-variable the
// compiler front-end would otherwise resolve (spec §4.5) — a hand-wired
// Builder graph has no such unification step.
func (b *Builder) MakeSet(name string, in Path, outIndexes ...*index.Index) Path {
	p := NewPath(name)
	b.G.AddVertex(&Vertex{
		Path: p, Kind: KindUnary, OperatorKind: operators.MakeSet,
		Unary: func(v value.Value) value.Value {
			return wrapZSet(operators.MakeSetFn(v, outIndexes...))
		},
		InputTypes: []value.Kind{value.KindInt}, OutputType: value.KindZSet,
	})
	b.G.AddEdge(in, p, 0)
	return p
}

// MakeScalar wires a make_scalar(z) vertex, make_set's partial inverse
// (spec §4.6/§7): fails at run time if z holds more than one distinct value
// with count 1. The vertex's Unary signature cannot itself return an error,
// so a failure panics — callers that need the checked form should call
// operators.MakeScalarFn directly outside the graph. Declared OutputType is
// pinned to KindInt for the same reason MakeSet pins its InputTypes: reduce
// is this engine's only grounded scalar producer.
func (b *Builder) MakeScalar(name string, in Path) Path {
	p := NewPath(name)
	b.G.AddVertex(&Vertex{
		Path: p, Kind: KindUnary, OperatorKind: operators.MakeScalar,
		Unary: func(v value.Value) value.Value {
			out, err := operators.MakeScalarFn(asZSet(v))
			if err != nil {
				panic(fmt.Sprintf("graph: make_scalar: %v", err))
			}
			return out
		},
		InputTypes: []value.Kind{value.KindZSet}, OutputType: value.KindInt,
	})
	b.G.AddEdge(in, p, 0)
	return p
}

// Group wires a group(z, by) vertex, partitioning z by the key by extracts
// (spec §4.6). The output wire carries a *operators.Grouped wrapped as
// value.GroupedValue.
func (b *Builder) Group(name string, in Path, by *index.Index, elemIndexes ...*index.Index) Path {
	p := NewPath(name)
	b.G.AddVertex(&Vertex{
		Path: p, Kind: KindUnary, OperatorKind: operators.Group,
		Unary: func(v value.Value) value.Value {
			return value.GroupedValue(operators.GroupFn(asZSet(v), by, elemIndexes...))
		},
		InputTypes: []value.Kind{value.KindZSet}, OutputType: value.KindGrouped,
	})
	b.G.AddEdge(in, p, 0)
	return p
}

// Flatten wires a flatten(g) vertex, group's inverse: re-emits a Grouped as
// pairs (value, key) (spec §4.6).
func (b *Builder) Flatten(name string, in Path, outIndexes ...*index.Index) Path {
	p := NewPath(name)
	b.G.AddVertex(&Vertex{
		Path: p, Kind: KindUnary, OperatorKind: operators.Flatten,
		Unary: func(v value.Value) value.Value {
			g, ok := v.AsGrouped().(*operators.Grouped)
			if !ok {
				panic("graph: flatten: wire value is not an operators.Grouped")
			}
			return wrapZSet(operators.FlattenFn(g, outIndexes...))
		},
		InputTypes: []value.Kind{value.KindGrouped}, OutputType: value.KindZSet,
	})
	b.G.AddEdge(in, p, 0)
	return p
}
