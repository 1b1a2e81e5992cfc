package compiler

import (
	"fmt"

	"github.com/syssam/stepping"
	"github.com/syssam/stepping/graph"
	"github.com/syssam/stepping/operators"
)

// methodKind maps a graph.Builder method name to the operators.Kind it
// wires, mirroring the teacher's per-function @vertex(OperatorKind) tag
// (compiler/gen/type.go) that let its code generator recognize
// generator-relevant calls by name; here Compile's diagnostic pass uses
// the same name-to-kind mapping to recognize operator calls inside a
// query function's source.
var methodKind = func() map[string]operators.Kind {
	m := map[string]operators.Kind{
		"Map":           operators.Map,
		"MapMany":       operators.MapMany,
		"Filter":        operators.Filter,
		"Reduce":        operators.Reduce,
		"MakeSet":       operators.MakeSet,
		"MakeScalar":    operators.MakeScalar,
		"Add":           operators.Add,
		"Neg":           operators.Neg,
		"Haitch":        operators.Haitch,
		"Join":          operators.Join,
		"FirstN":        operators.FirstN,
		"Group":         operators.Group,
		"Flatten":       operators.Flatten,
		"Delay":         operators.Delay,
		"Integrate":     operators.Integrate,
		"Differentiate": operators.Differentiate,
		"Distinct":      operators.Distinct,
		"Input":         operators.Identity,
	}
	return func(method string) operators.Kind {
		if k, ok := m[method]; ok {
			return k
		}
		return ""
	}
}()

// Compile builds a graph.Graph from a query function (spec §4.5): it wires
// one fresh input port per name in inputNames, invokes fn to build the rest
// of the graph, declares fn's returned paths as outputs, and runs the
// invariant checker (spec §3/§4.7's validation) before returning.
//
// Compile best-effort runs Inspect first so a discipline violation the
// static pass can see is reported as a *stepping.CompileError keyed by
// function and source line (spec §7) before fn ever executes; Inspect's
// own inability to resolve an anonymous closure's source is not itself an
// error (see Inspect's doc comment) — Compile simply skips straight to
// executing fn in that case.
func Compile(name string, fn QueryFunc, inputNames ...string) (*graph.Graph, error) {
	if _, err := Inspect(fn); err != nil {
		return nil, err
	}

	b := graph.NewBuilder()
	inputs := make([]graph.Path, len(inputNames))
	for i, n := range inputNames {
		inputs[i] = b.Input(n)
	}

	outputs, err := fn(b, inputs)
	if err != nil {
		return nil, &stepping.CompileError{Func: name, Msg: err.Error()}
	}
	for _, o := range outputs {
		b.Output(o)
	}

	if err := b.G.Validate(); err != nil {
		return nil, &stepping.CompileError{Func: name, Msg: fmt.Sprintf("invalid graph: %v", err)}
	}
	if err := graph.DefaultPolicy().Eval(b.G); err != nil {
		return nil, &stepping.CompileError{Func: name, Msg: fmt.Sprintf("invalid graph: %v", err)}
	}
	return b.G, nil
}
