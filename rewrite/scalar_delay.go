package rewrite

import (
	"fmt"

	"github.com/syssam/stepping/graph"
	"github.com/syssam/stepping/operators"
	"github.com/syssam/stepping/value"
	"github.com/syssam/stepping/zset"
)

// ScalarDelayReshape rewrites every delay vertex whose element type isn't a
// Z-set into make_set -> delay -> make_scalar, so the store only ever
// persists Z-sets (spec §4.7 rule 1). The reshaped delay carries the
// original vertex's declared Indexes. Returns g unchanged (pointer-identical)
// once no non-Z-set delay remains.
func ScalarDelayReshape(g *graph.Graph) (*graph.Graph, error) {
	var target *graph.Vertex
	for _, v := range g.Vertices() {
		if v.Kind == graph.KindDelay && v.OutputType != value.KindZSet {
			target = v
			break
		}
	}
	if target == nil {
		return g, nil
	}

	preds := g.Predecessors(target.Path)
	if len(preds) != 1 {
		return nil, fmt.Errorf("rewrite: delay vertex %s must have exactly one predecessor, has %d", target.Path, len(preds))
	}
	src := preds[0].Src
	elemType := target.OutputType

	makeSetPath := target.Path.Join("make_set")
	delayPath := target.Path.Join("delay")
	makeScalarPath := target.Path.Join("make_scalar")

	ng, err := copyOthers(g, target.Path.String())
	if err != nil {
		return nil, err
	}

	if err := ng.AddVertex(&graph.Vertex{
		Path: makeSetPath, Kind: graph.KindUnary, OperatorKind: operators.MakeSet,
		Unary: func(v value.Value) value.Value {
			return value.ZSetValue(operators.MakeSetFn(v))
		},
		InputTypes: []value.Kind{elemType}, OutputType: value.KindZSet,
	}); err != nil {
		return nil, err
	}
	if err := ng.AddVertex(&graph.Vertex{
		Path: delayPath, Kind: graph.KindDelay, Indexes: target.Indexes,
		InputTypes: []value.Kind{value.KindZSet}, OutputType: value.KindZSet,
	}); err != nil {
		return nil, err
	}
	if err := ng.AddVertex(&graph.Vertex{
		Path: makeScalarPath, Kind: graph.KindUnary, OperatorKind: operators.MakeScalar,
		Unary: func(v value.Value) value.Value {
			z, ok := v.AsZSet().(*zset.ZSet)
			if !ok {
				panic("rewrite: make_scalar input is not a Z-set")
			}
			out, err := operators.MakeScalarFn(z)
			if err != nil {
				panic("rewrite: " + err.Error())
			}
			return out
		},
		InputTypes: []value.Kind{value.KindZSet}, OutputType: elemType,
	}); err != nil {
		return nil, err
	}

	if err := ng.AddEdge(src, makeSetPath, 0); err != nil {
		return nil, err
	}
	if err := ng.AddEdge(makeSetPath, delayPath, 0); err != nil {
		return nil, err
	}
	if err := ng.AddEdge(delayPath, makeScalarPath, 0); err != nil {
		return nil, err
	}
	for _, e := range g.Internal() {
		if !e.Src.Equal(target.Path) {
			continue
		}
		if err := ng.AddEdge(makeScalarPath, e.Dst, e.Port); err != nil {
			return nil, err
		}
	}

	carryOver(ng, g)
	if outIdx := pathIndex(ng.Output, target.Path); outIdx >= 0 {
		out := append([]graph.Path(nil), ng.Output...)
		out[outIdx] = makeScalarPath
		ng.Output = out
	}
	return ng, nil
}

func pathIndex(paths []graph.Path, p graph.Path) int {
	for i, q := range paths {
		if q.Equal(p) {
			return i
		}
	}
	return -1
}
