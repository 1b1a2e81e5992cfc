package rewrite

import (
	"fmt"

	"github.com/syssam/stepping/graph"
	"github.com/syssam/stepping/operators"
)

// RemoveIdentities removes one identity vertex that is neither a declared
// input nor a declared output, rewiring its single predecessor directly to
// each of its successors (spec §4.7 rule 3). Returns g unchanged
// (pointer-identical) once no removable identity remains, so wrapping this
// in TilStable drives the graph to its stable, identity-free form exactly
// as original_source's finalize = til_stable(remove_identities) does.
func RemoveIdentities(g *graph.Graph) (*graph.Graph, error) {
	isBoundary := map[string]bool{}
	for _, ip := range g.Input {
		isBoundary[ip.Path.String()] = true
	}
	for _, p := range g.Output {
		isBoundary[p.String()] = true
	}

	var remove *graph.Vertex
	for _, v := range g.Vertices() {
		if v.Kind == graph.KindUnary && v.OperatorKind == operators.Identity && !isBoundary[v.Path.String()] {
			remove = v
			break
		}
	}
	if remove == nil {
		return g, nil
	}

	preds := g.Predecessors(remove.Path)
	if len(preds) != 1 {
		return nil, fmt.Errorf("rewrite: identity vertex %s must have exactly one predecessor, has %d", remove.Path, len(preds))
	}
	src := preds[0].Src

	ng, err := copyOthers(g, remove.Path.String())
	if err != nil {
		return nil, err
	}
	for _, e := range g.Internal() {
		if !e.Src.Equal(remove.Path) {
			continue
		}
		if err := ng.AddEdge(src, e.Dst, e.Port); err != nil {
			return nil, err
		}
	}
	carryOver(ng, g)
	return ng, nil
}
