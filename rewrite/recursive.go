package rewrite

import (
	"fmt"

	"github.com/syssam/stepping/graph"
	"github.com/syssam/stepping/index"
	"github.com/syssam/stepping/operators"
	"github.com/syssam/stepping/value"
)

// RecursiveLift wraps inner — a sub-graph computing one step of a
// recursive definition, delta -> delta' over the same element type — into
// a single KindIntegrateTilZero vertex a parent graph can wire in like any
// other vertex (spec §4.7 rule 4: "at run-time this vertex re-invokes the
// inner graph with the accumulated delta until the returned delta is
// empty").
//
// inner's own input vertex is retagged IdentityDontRemove so a later
// rewrite pass run over the inner graph recognises it as the recursion's
// feed point rather than an ordinary elision candidate — on top of, not
// instead of, the input-boundary protection RemoveIdentities already gives
// every declared input. inner is consumed: its input vertex is mutated in
// place, so callers should not reuse inner after lifting it.
func RecursiveLift(name string, inner *graph.Graph, indexes ...*index.Index) (*graph.Vertex, error) {
	if len(inner.Input) != 1 || len(inner.Output) != 1 {
		return nil, fmt.Errorf("rewrite: recursive sub-graph must have exactly one input and one output, got %d and %d", len(inner.Input), len(inner.Output))
	}
	feed, ok := inner.Vertex(inner.Input[0].Path)
	if !ok {
		return nil, fmt.Errorf("rewrite: recursive sub-graph's declared input %s is not a vertex", inner.Input[0].Path)
	}
	feed.OperatorKind = operators.IdentityDontRemove

	out, ok := inner.Vertex(inner.Output[0])
	if !ok {
		return nil, fmt.Errorf("rewrite: recursive sub-graph's declared output %s is not a vertex", inner.Output[0])
	}
	elemType := out.OutputType

	return &graph.Vertex{
		Path: graph.NewPath(name), Kind: graph.KindIntegrateTilZero,
		Inner: inner, Indexes: indexes,
		InputTypes: []value.Kind{elemType}, OutputType: elemType,
	}, nil
}
