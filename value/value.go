// Package value implements the closed value universe the engine transports
// and persists: atoms, fixed/variadic tuples, frozen sets, pairs, records and
// Z-sets of values. Values are deeply immutable; equality is structural.
package value

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind tags the variant a Value holds. The set is closed: no caller can
// introduce a new Kind at runtime.
type Kind uint8

const (
	KindNone Kind = iota
	KindInt
	KindFloat
	KindBool
	KindString
	KindDate
	KindTimestamp
	KindUUID
	KindEnum
	KindTuple
	KindVariadicTuple
	KindSet
	KindPair
	KindRecord
	KindZSet
	KindGrouped
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindDate:
		return "date"
	case KindTimestamp:
		return "timestamp"
	case KindUUID:
		return "uuid"
	case KindEnum:
		return "enum"
	case KindTuple:
		return "tuple"
	case KindVariadicTuple:
		return "variadic_tuple"
	case KindSet:
		return "set"
	case KindPair:
		return "pair"
	case KindRecord:
		return "record"
	case KindZSet:
		return "zset"
	case KindGrouped:
		return "grouped"
	default:
		return "unknown"
	}
}

// ZSetLike is satisfied by zset.ZSet[Value] so that a Z-set can itself be a
// Value without value importing zset (which imports value).
type ZSetLike interface {
	// Entries returns the Z-set's (value, count) pairs sorted by the
	// encoded byte form of value, for deterministic canonical encoding.
	Entries() []Entry
}

// Entry is one (value, count) pair of a Z-set-valued Value.
type Entry struct {
	V Value
	C int64
}

// Value is an immutable, structurally-comparable member of the engine's
// closed data universe. The zero Value is the none atom.
type Value struct {
	kind Kind

	i    int64
	f    float64
	b    bool
	s    string
	t    time.Time
	u    uuid.UUID

	enumName string
	enumVal  *Value

	items    []Value // tuple / variadic tuple / set members
	variadic bool

	pair *[2]Value

	record *Record

	zset ZSetLike

	// grouped carries a *operators.Grouped once group lifting (spec §4.7
	// rule 2) is applied to a graph, wrapped as any since operators
	// already imports value and so cannot be imported back here.
	grouped any

	// identity memoises the MD5 identity of composite values (nil until
	// first requested).
	identity *[16]byte
}

// Kind returns the value's variant tag.
func (v Value) Kind() Kind { return v.kind }

// Record is a named, ordered-field "Data" value: a user record with
// per-field values and an optional discriminant field for tagged unions.
type Record struct {
	TypeName     string
	Discriminant string // name of the discriminant field, "" if none
	Fields       []Field
}

// Field is one named field of a Record, in declared order.
type Field struct {
	Name  string
	Value Value
}

// FieldByName returns the value of the named field and true, or the zero
// Value and false if no such field exists.
func (r *Record) FieldByName(name string) (Value, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// DiscriminantValue returns the string value of the discriminant field.
// Panics if the record declares no discriminant or the field is not a
// string atom — that is a schema-construction bug, not a runtime condition.
func (r *Record) DiscriminantValue() string {
	if r.Discriminant == "" {
		panic("value: record has no discriminant field")
	}
	f, ok := r.FieldByName(r.Discriminant)
	if !ok {
		panic(fmt.Sprintf("value: record missing declared discriminant field %q", r.Discriminant))
	}
	if f.Kind() != KindString {
		panic(fmt.Sprintf("value: discriminant field %q is not a string", r.Discriminant))
	}
	return f.s
}

// ---- constructors ----

// None is the singleton none atom.
var None = Value{kind: KindNone}

// Int constructs a signed integer atom.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float constructs a float atom.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Bool constructs a boolean atom.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// String constructs a string atom.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Date constructs a date atom; only the date portion (UTC, midnight) is
// significant — time-of-day is truncated.
func Date(t time.Time) Value {
	u := t.UTC()
	return Value{kind: KindDate, t: time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)}
}

// Timestamp constructs a timestamp atom, normalised to UTC when tz-aware
// per spec §4.1.
func Timestamp(t time.Time) Value { return Value{kind: KindTimestamp, t: t.UTC()} }

// UUID constructs a UUID atom.
func UUID(u uuid.UUID) Value { return Value{kind: KindUUID, u: u} }

// Enum constructs an enum atom: a name plus its underlying atom value.
func Enum(name string, underlying Value) Value {
	return Value{kind: KindEnum, enumName: name, enumVal: &underlying}
}

// EnumName returns the enum's case name.
func (v Value) EnumName() string {
	mustKind(v, KindEnum)
	return v.enumName
}

// Underlying returns an enum's underlying atom.
func (v Value) Underlying() Value {
	mustKind(v, KindEnum)
	return *v.enumVal
}

// Tuple constructs a fixed-arity tuple.
func Tuple(items ...Value) Value {
	return Value{kind: KindTuple, items: append([]Value(nil), items...)}
}

// VariadicTuple constructs a variadic, homogeneous tuple.
func VariadicTuple(items ...Value) Value {
	return Value{kind: KindVariadicTuple, items: append([]Value(nil), items...), variadic: true}
}

// FrozenSet constructs a frozen set, deduplicating structurally-equal
// members. Encoding order is by encoded byte form (lexicographic),
// established at encode time; Items returns members in insertion order.
func FrozenSet(items ...Value) Value {
	out := make([]Value, 0, len(items))
	for _, it := range items {
		dup := false
		for _, o := range out {
			if Equal(o, it) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, it)
		}
	}
	return Value{kind: KindSet, items: out}
}

// Items returns the members of a tuple, variadic tuple or set, in their
// stored (not necessarily canonical) order.
func (v Value) Items() []Value {
	switch v.kind {
	case KindTuple, KindVariadicTuple, KindSet:
		return v.items
	default:
		panic(fmt.Sprintf("value: Items() on kind %s", v.kind))
	}
}

// Pair constructs a binary record.
func Pair(a, b Value) Value {
	p := [2]Value{a, b}
	return Value{kind: KindPair, pair: &p}
}

// First returns a pair's first element.
func (v Value) First() Value {
	mustKind(v, KindPair)
	return v.pair[0]
}

// Second returns a pair's second element.
func (v Value) Second() Value {
	mustKind(v, KindPair)
	return v.pair[1]
}

// Data constructs a user record value.
func Data(r *Record) Value { return Value{kind: KindRecord, record: r} }

// AsRecord returns the underlying *Record of a record value.
func (v Value) AsRecord() *Record {
	mustKind(v, KindRecord)
	return v.record
}

// ZSetValue wraps a Z-set-like collection so it can participate as a Value
// (spec §3: "Z-sets of values").
func ZSetValue(z ZSetLike) Value { return Value{kind: KindZSet, zset: z} }

// AsZSet returns the underlying ZSetLike of a Z-set-valued Value.
func (v Value) AsZSet() ZSetLike {
	mustKind(v, KindZSet)
	return v.zset
}

// GroupedValue wraps an opaque grouped-Z-set payload (package operators'
// *Grouped) so it can participate as a Value on graph wires once group
// lifting has been applied (spec §4.7 rule 2). Callers type-assert the
// returned any back to *operators.Grouped.
func GroupedValue(g any) Value { return Value{kind: KindGrouped, grouped: g} }

// AsGrouped returns the opaque grouped-Z-set payload of a grouped value.
func (v Value) AsGrouped() any {
	mustKind(v, KindGrouped)
	return v.grouped
}

func mustKind(v Value, k Kind) {
	if v.kind != k {
		panic(fmt.Sprintf("value: expected kind %s, got %s", k, v.kind))
	}
}

// ---- atom accessors ----

// Int64 returns an int atom's value.
func (v Value) Int64() int64 { mustKind(v, KindInt); return v.i }

// Float64 returns a float atom's value.
func (v Value) Float64() float64 { mustKind(v, KindFloat); return v.f }

// BoolVal returns a bool atom's value.
func (v Value) BoolVal() bool { mustKind(v, KindBool); return v.b }

// Str returns a string atom's value.
func (v Value) Str() string { mustKind(v, KindString); return v.s }

// Time returns a date or timestamp atom's value.
func (v Value) Time() time.Time {
	if v.kind != KindDate && v.kind != KindTimestamp {
		panic(fmt.Sprintf("value: Time() on kind %s", v.kind))
	}
	return v.t
}

// UUIDVal returns a UUID atom's value.
func (v Value) UUIDVal() uuid.UUID { mustKind(v, KindUUID); return v.u }

// IsAtom reports whether v is an atom (no sub-structure).
func (v Value) IsAtom() bool {
	switch v.kind {
	case KindNone, KindInt, KindFloat, KindBool, KindString, KindDate, KindTimestamp, KindUUID, KindEnum:
		return true
	default:
		return false
	}
}
