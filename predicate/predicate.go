// Package predicate implements the Fielder combinator DSL used to build
// filter/map predicates over value.Value atoms (spec §4.6's filter, and
// SPEC_FULL.md's supplemented query surface). Grounded on
// querylanguage/types_test.go's observed rendering rules: a predicate is
// built unbound (a Fielder), then bound to a field name to produce a P with
// both a human-readable rendering and an evaluator.
//
// The teacher generates one typed family (StringP, IntP, BoolP, ...) per Go
// field type via code generation; since this engine's values all live in
// the single closed value.Value universe (spec §3), one family serves every
// atom kind instead of twenty generated ones.
package predicate

import (
	"fmt"

	"github.com/syssam/stepping/index"
	"github.com/syssam/stepping/value"
)

// Fielder builds a P once bound to a field name.
type Fielder interface {
	Field(name string) P
}

// P is a bound predicate: it renders as a boolean expression and evaluates
// against a value.Value.
type P struct {
	expr string
	eval func(value.Value) bool
}

// String renders the predicate's boolean expression, field-qualified.
func (p P) String() string { return p.expr }

// Eval reports whether v satisfies the predicate.
func (p P) Eval(v value.Value) bool { return p.eval(v) }

// Field implements Fielder: a bound P is already field-qualified, so
// rebinding is a no-op. This lets combinators accept either an unbound
// Fielder or an already-bound P.
func (p P) Field(string) P { return p }

type fielderFunc func(field string) P

func (f fielderFunc) Field(field string) P { return f(field) }

func literal(v value.Value) string {
	switch v.Kind() {
	case value.KindNone:
		return "nil"
	case value.KindString:
		return fmt.Sprintf("%q", v.Str())
	case value.KindBool:
		if v.BoolVal() {
			return "true"
		}
		return "false"
	case value.KindInt:
		return fmt.Sprintf("%d", v.Int64())
	case value.KindFloat:
		return fmt.Sprintf("%g", v.Float64())
	case value.KindDate, value.KindTimestamp:
		return fmt.Sprintf("%q", v.Time().Format("2006-01-02T15:04:05Z07:00"))
	case value.KindUUID:
		return fmt.Sprintf("%q", v.UUIDVal().String())
	case value.KindEnum:
		return fmt.Sprintf("%q", v.EnumName())
	default:
		return fmt.Sprintf("%q", value.MustEncode(v))
	}
}

func compare(a, b value.Value) int {
	return index.Identity(a.Kind()).Compare(a, b)
}

func cmp(op string, rhs value.Value, accept func(c int) bool) Fielder {
	lit := literal(rhs)
	return fielderFunc(func(field string) P {
		return P{
			expr: fmt.Sprintf("%s %s %s", field, op, lit),
			eval: func(v value.Value) bool { return accept(compare(v, rhs)) },
		}
	})
}

// EQ builds "field == rhs".
func EQ(rhs value.Value) Fielder {
	return cmp("==", rhs, func(c int) bool { return c == 0 })
}

// NEQ builds "field != rhs".
func NEQ(rhs value.Value) Fielder {
	return cmp("!=", rhs, func(c int) bool { return c != 0 })
}

// LT builds "field < rhs".
func LT(rhs value.Value) Fielder {
	return cmp("<", rhs, func(c int) bool { return c < 0 })
}

// LTE builds "field <= rhs".
func LTE(rhs value.Value) Fielder {
	return cmp("<=", rhs, func(c int) bool { return c <= 0 })
}

// GT builds "field > rhs".
func GT(rhs value.Value) Fielder {
	return cmp(">", rhs, func(c int) bool { return c > 0 })
}

// GTE builds "field >= rhs".
func GTE(rhs value.Value) Fielder {
	return cmp(">=", rhs, func(c int) bool { return c >= 0 })
}

// IsNil builds "field == nil".
func IsNil() Fielder { return EQ(value.None) }

// NotNil builds "field != nil".
func NotNil() Fielder { return NEQ(value.None) }

// And builds the conjunction of fs. Two operands render unparenthesized
// ("a && b"); three or more are wrapped in one surrounding pair of parens
// ("(a && b && c)") — matching the teacher's NaryExpr/BinaryExpr split.
func And(fs ...Fielder) Fielder { return joined("&&", true, fs) }

// Or builds the disjunction of fs, with the same 2-vs-3+ rendering rule as And.
func Or(fs ...Fielder) Fielder { return joined("||", false, fs) }

func joined(op string, isAnd bool, fs []Fielder) Fielder {
	return fielderFunc(func(field string) P {
		bound := make([]P, len(fs))
		for i, f := range fs {
			bound[i] = f.Field(field)
		}
		expr := bound[0].expr
		for i := 1; i < len(bound); i++ {
			expr += " " + op + " " + bound[i].expr
		}
		if len(bound) >= 3 {
			expr = "(" + expr + ")"
		}
		return P{
			expr: expr,
			eval: func(v value.Value) bool {
				for _, b := range bound {
					ok := b.eval(v)
					if isAnd && !ok {
						return false
					}
					if !isAnd && ok {
						return true
					}
				}
				return isAnd
			},
		}
	})
}

// Not builds the negation of f, always wrapped in exactly one pair of
// parens ("!(...)"), regardless of f's own rendering.
func Not(f Fielder) Fielder {
	return fielderFunc(func(field string) P {
		inner := f.Field(field)
		return P{
			expr: "!(" + inner.expr + ")",
			eval: func(v value.Value) bool { return !inner.eval(v) },
		}
	})
}

// ToFilter adapts a Fielder, bound to field, into the predicate shape
// operators.FilterFn expects: a plain func(value.Value) bool. field is
// cosmetic (used only in String()'s rendering); the evaluator always
// receives the whole row, since filter predicates in this engine close over
// whichever sub-value they inspect rather than indirecting through a named
// struct field.
func ToFilter(f Fielder, field string) func(value.Value) bool {
	p := f.Field(field)
	return p.Eval
}
