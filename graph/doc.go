// Package graph implements the dataflow graph IR described in Graph's own
// doc comment in graph.go.
//
// # Vertex kinds
//
// Every vertex is one of four kinds (spec §3):
//
//	KindUnary            one input port, e.g. map/filter/first_n
//	KindBinary           two input ports, e.g. join/add/haitch
//	KindDelay            zero-or-one input, output is last step's input
//	KindIntegrateTilZero one input, wraps an inner Graph run to a fixpoint
//
// # Building a graph
//
// Builder assembles vertices under a path prefix and wires them with
// AddEdge, mirroring what the compiler front-end (package compiler) produces
// mechanically from a query function's source:
//
//	b := graph.NewBuilder()
//	in := b.Input("orders")
//	big := b.Filter("big_orders", in, isLarge)
//	b.Output(big)
//	g := b.G
//
// # Validation and policy
//
// Validate checks edge type-agreement directly. Policy (policy.go) composes
// the same check, plus acyclicity, as an ordered Allow/Deny/Skip rule chain
// for callers assembling a stricter invariant set than Validate's default.
package graph
