// Package compiler implements the graph compiler front-end (spec §4.5): it
// takes a straight-line, single-assignment Go query function and turns it
// into a validated github.com/syssam/stepping/graph.Graph.
//
// Go query functions are written directly against graph.Builder — unlike
// the original Python front-end, which interprets a function's own source
// at call time (Python functions are data the interpreter can inspect), a
// Go query function is already compiled code. The discipline spec §4.5
// requires (single-assignment body, calls to known operators, one
// terminal return) is therefore enforced two ways: structurally, by the
// QueryFunc signature itself (a Builder call always returns exactly one
// new Path, so "assignment to a single name" falls out of Go's own
// single-assignment `:=` idiom), and, best-effort, by statically parsing
// the function's own source via Inspect so compile errors can still be
// keyed by function and source line per spec §7.
package compiler

import "github.com/syssam/stepping/operators"

// Assignment records one recognized `target := b.<Op>(...)` statement in a
// query function's body.
type Assignment struct {
	Target string         // the local variable name the call result is bound to
	Kind   operators.Kind // the recognized operator, empty if unrecognized
	Pos    string         // file:line of the statement
}

// FunctionIR is the static shape Inspect recovers from a query function's
// source: one Assignment per statement, plus the names returned.
type FunctionIR struct {
	Func        string
	Assignments []Assignment
	Returns     []string
}
