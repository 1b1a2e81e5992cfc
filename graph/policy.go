package graph

import (
	"errors"
	"fmt"
)

// Policy decision sentinel errors, evaluated the same way privacy rules are:
// a rule may Allow, Deny, or Skip to the next rule in the chain. Adapted from
// the teacher's privacy.Allow/Deny/Skip (ordered query/mutation rule
// evaluation) applied to graph-construction invariants instead of entity
// mutations — Validate checks type agreement directly but not acyclicity,
// and compiler.Compile runs DefaultPolicy after Validate; Policy exists
// for callers who want to compose their own invariant chain (e.g. a
// stricter compiler front-end that adds rewrite-specific rules) without
// forking Validate.
var (
	// Allow terminates evaluation with no error: the graph (or the portion
	// a rule inspected) satisfies the invariant the rule checks.
	Allow = errors.New("graph: allow rule")

	// Deny terminates evaluation with the wrapping error surfaced to the
	// caller.
	Deny = errors.New("graph: deny rule")

	// Skip continues evaluation to the next rule in the policy.
	Skip = errors.New("graph: skip rule")
)

// Denyf returns a formatted wrapped Deny decision.
func Denyf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Deny)...)
}

// Rule decides whether a graph (or some aspect of it) satisfies an
// invariant, returning Allow, Deny, Skip, or a wrapped form of one of those.
type Rule interface {
	EvalGraph(*Graph) error
}

// RuleFunc adapts an ordinary function to a Rule.
type RuleFunc func(*Graph) error

// EvalGraph returns f(g).
func (f RuleFunc) EvalGraph(g *Graph) error { return f(g) }

// Policy evaluates an ordered sequence of rules against a graph, stopping at
// the first Allow or Deny decision; a Skip (or nil) falls through to the
// next rule. An exhausted policy with no Allow/Deny decision is treated as
// allowed, matching privacy.Policies.eval's default.
type Policy []Rule

// Eval runs g through the policy in order.
func (p Policy) Eval(g *Graph) error {
	for _, rule := range p {
		switch decision := rule.EvalGraph(g); {
		case decision == nil || errors.Is(decision, Skip):
		case errors.Is(decision, Allow):
			return nil
		default:
			return decision
		}
	}
	return nil
}

// TypeAgreementRule denies a graph in which some internal edge connects a
// source's output type to a destination input port of a different type
// (spec §3's type-agreement invariant; same check Validate performs
// directly, exposed here as a composable rule for callers building their
// own policy).
func TypeAgreementRule() Rule {
	return RuleFunc(func(g *Graph) error {
		for _, e := range g.Internal() {
			src, ok := g.Vertex(e.Src)
			if !ok {
				return Denyf("graph: edge references unknown source vertex %s", e.Src)
			}
			dst, ok := g.Vertex(e.Dst)
			if !ok {
				return Denyf("graph: edge references unknown destination vertex %s", e.Dst)
			}
			if e.Port < 0 || e.Port >= len(dst.InputTypes) {
				return Denyf("graph: edge into %s references port %d outside its %d declared inputs", dst.Path, e.Port, len(dst.InputTypes))
			}
			if dst.InputTypes[e.Port] != src.OutputType {
				return Denyf("graph: edge %s -> %s port %d: type mismatch (%v into %v)", e.Src, e.Dst, e.Port, src.OutputType, dst.InputTypes[e.Port])
			}
		}
		return Skip
	})
}

// AcyclicRule denies a graph with a cycle not broken by a delay vertex —
// delay's own incoming edge is the one back-edge a well-formed dataflow
// graph is allowed to have (spec §4.8 step 1, §9).
func AcyclicRule() Rule {
	return RuleFunc(func(g *Graph) error {
		indeg := map[string]int{}
		for _, v := range g.Vertices() {
			indeg[v.Path.String()] = 0
		}
		for _, e := range g.Internal() {
			dst := g.MustVertex(e.Dst)
			if dst.Kind == KindDelay {
				continue
			}
			indeg[e.Dst.String()]++
		}
		var ready []string
		for key, n := range indeg {
			if n == 0 {
				ready = append(ready, key)
			}
		}
		visited := 0
		for len(ready) > 0 {
			key := ready[len(ready)-1]
			ready = ready[:len(ready)-1]
			visited++
			for _, e := range g.Successors(NewPath(key)) {
				dst := g.MustVertex(e.Dst)
				if dst.Kind == KindDelay {
					continue
				}
				dk := e.Dst.String()
				indeg[dk]--
				if indeg[dk] == 0 {
					ready = append(ready, dk)
				}
			}
		}
		if visited != len(g.Vertices()) {
			return Denyf("graph: cycle not broken by a delay vertex")
		}
		return Skip
	})
}

// DefaultPolicy is the invariant chain compiler.Compile runs after
// Graph.Validate: type agreement, then acyclicity.
func DefaultPolicy() Policy {
	return Policy{TypeAgreementRule(), AcyclicRule()}
}
