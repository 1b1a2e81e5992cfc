// Package rewrite implements the fixed, ordered pipeline of graph-to-graph
// transformations that follow compilation and converge at a stable form
// (spec §4.7). Grounded on
// original_source/src/stepping/operators/transform.py: the same five
// rewrites (scalar-delay reshape, group lifting, identity elision, recursive
// lifting, cache registration) and the same til_stable fixpoint driver for
// identity elision, adapted from transform.py's dataclass-replacement style
// to graph.Graph's path-keyed vertex map — replace_vertex there becomes
// splice here, rebuilding a new Graph via the public AddVertex/AddEdge API
// rather than mutating internal sets in place.
package rewrite

import "github.com/syssam/stepping/graph"

// Pass transforms a graph, returning a new graph or an error. A pass never
// mutates its input graph.
type Pass func(*graph.Graph) (*graph.Graph, error)

// Pipeline is the ordered rewrite sequence run over a freshly-compiled graph
// before it is handed to a scheduler. Recursive lifting and cache
// registration (spec §4.7 rules 4-5) are not graph-wide passes here, and
// compiler.Compile does not apply them either: RecursiveLift and
// RegisterCache take effect only where a caller invokes them directly.
func Pipeline() []Pass {
	return []Pass{
		ScalarDelayReshape,
		TilStable(RemoveIdentities),
	}
}

// Run applies every pass in order, validating the graph after each (spec
// §4.7: "At every stage the graph invariants of §3 hold; rewrites deep-copy
// and re-run invariant checks").
func Run(g *graph.Graph) (*graph.Graph, error) {
	var err error
	for _, pass := range Pipeline() {
		g, err = pass(g)
		if err != nil {
			return nil, err
		}
		if err := g.Validate(); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// TilStable repeatedly applies f until it reports no change (by returning
// its input graph unchanged, pointer-identical — the convention every pass
// in this package follows when it finds nothing left to do), capped at 999
// iterations (original_source's til_stable: "give up after a bit").
func TilStable(f Pass) Pass {
	return func(g *graph.Graph) (*graph.Graph, error) {
		for i := 0; i < 999; i++ {
			next, err := f(g)
			if err != nil {
				return nil, err
			}
			if next == g {
				return next, nil
			}
			g = next
		}
		return g, nil
	}
}

// copyOthers builds a new graph carrying every vertex of g except those
// named in except, and every edge of g neither starting nor ending at one
// of those paths. Callers reattach the removed vertices' edges themselves,
// then copy over Input/Output/RunNoOutput. Mirrors transform.py's
// replace_vertex, which does the same split (edges into remove, edges out
// of remove, everything else) before re-linking.
func copyOthers(g *graph.Graph, except ...string) (*graph.Graph, error) {
	drop := map[string]bool{}
	for _, p := range except {
		drop[p] = true
	}
	ng := graph.New()
	for _, v := range g.Vertices() {
		if drop[v.Path.String()] {
			continue
		}
		if err := ng.AddVertex(v); err != nil {
			return nil, err
		}
	}
	for _, e := range g.Internal() {
		if drop[e.Src.String()] || drop[e.Dst.String()] {
			continue
		}
		if err := ng.AddEdge(e.Src, e.Dst, e.Port); err != nil {
			return nil, err
		}
	}
	return ng, nil
}

// carryOver copies the input/output/run-no-output declarations of g onto
// ng, unchanged (a rewrite never adds or removes a declared input/output).
func carryOver(ng, g *graph.Graph) {
	ng.Input = g.Input
	ng.Output = g.Output
	ng.RunNoOutput = g.RunNoOutput
}
