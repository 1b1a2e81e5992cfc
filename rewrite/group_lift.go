package rewrite

import (
	"fmt"

	"github.com/syssam/stepping/graph"
	"github.com/syssam/stepping/operators"
	"github.com/syssam/stepping/value"
)

// LiftGrouped transforms every vertex of a sub-graph operating on T into one
// operating on Grouped<T,K> (spec §4.7 rule 2): a unary f: T->V becomes
// "apply f to every key's value, a key missing on input fails explicitly",
// and a binary vertex — which must be add — becomes per-key add with the
// annihilation laws 0+x=x, x+0=x, join(x,empty)=empty.
//
// Grounded on original_source/src/stepping/operators/transform.py's
// lift_grouped, which brackets vertex retyping with
// replace_non_zset_delays both before and after; here the "after" bracket
// is just running ScalarDelayReshape again, since a delay of Grouped falls
// out of the same "element type isn't a Z-set" rule as any other scalar
// delay — so this pass only retypes vertices, leaving delay reshaping to
// ScalarDelayReshape. This also means it defers transform.py's
// replace_grouped_delays optimisation (touch only the keys changed this
// step); delay of a GenericGrouped persists the whole grouping through
// make_set/make_scalar each step instead (see DESIGN.md).
func LiftGrouped(g *graph.Graph) (*graph.Graph, error) {
	ng := graph.New()
	for _, v := range g.Vertices() {
		lifted, err := liftVertex(v)
		if err != nil {
			return nil, err
		}
		if err := ng.AddVertex(lifted); err != nil {
			return nil, err
		}
	}
	for _, e := range g.Internal() {
		if err := ng.AddEdge(e.Src, e.Dst, e.Port); err != nil {
			return nil, err
		}
	}
	carryOver(ng, g)
	return ng, nil
}

func liftVertex(v *graph.Vertex) (*graph.Vertex, error) {
	out := &graph.Vertex{
		Path: v.Path, Kind: v.Kind, OperatorKind: v.OperatorKind,
		Indexes: v.Indexes, Inner: v.Inner,
	}
	switch v.Kind {
	case graph.KindUnary:
		inner := v.Unary
		out.Unary = func(gv value.Value) value.Value {
			grouped, ok := gv.AsGrouped().(*operators.GenericGrouped)
			if !ok {
				panic("rewrite: lift_grouped: input is not a grouped value")
			}
			return value.GroupedValue(operators.LiftUnaryFn(grouped, inner))
		}
		out.InputTypes = []value.Kind{value.KindGrouped}
		out.OutputType = value.KindGrouped
	case graph.KindBinary:
		if v.OperatorKind != operators.Add {
			return nil, fmt.Errorf("rewrite: lift_grouped: can only lift add binary vertices, got %q", v.OperatorKind)
		}
		inner := v.Binary
		out.Binary = func(a, b value.Value) value.Value {
			ag, ok := a.AsGrouped().(*operators.GenericGrouped)
			if !ok {
				panic("rewrite: lift_grouped: left input is not a grouped value")
			}
			bg, ok := b.AsGrouped().(*operators.GenericGrouped)
			if !ok {
				panic("rewrite: lift_grouped: right input is not a grouped value")
			}
			return value.GroupedValue(operators.LiftAddFn(ag, bg, inner))
		}
		out.InputTypes = []value.Kind{value.KindGrouped, value.KindGrouped}
		out.OutputType = value.KindGrouped
	case graph.KindDelay, graph.KindIntegrateTilZero:
		out.InputTypes = []value.Kind{value.KindGrouped}
		out.OutputType = value.KindGrouped
	default:
		return nil, fmt.Errorf("rewrite: lift_grouped: unknown vertex kind %v", v.Kind)
	}
	return out, nil
}
