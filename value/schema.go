package value

import "fmt"

// SchemaKind mirrors Kind but additionally distinguishes a cyclic reference
// node, used when a record type refers to itself (directly or through a
// cycle of other record types).
type SchemaKind uint8

const (
	SchemaAtom SchemaKind = iota
	SchemaTuple
	SchemaVariadicTuple
	SchemaSet
	SchemaPair
	SchemaRecord
	SchemaZSet
	SchemaReference // resolved through the global schema table by FQN
)

// Schema describes the static shape of a Value type, built once per Go type
// and shared (spec §4.1: "built once per type, recursively"). Schemas are
// themselves plain data so they can be serialized for cross-process use.
type Schema struct {
	Kind SchemaKind

	AtomKind Kind // valid when Kind == SchemaAtom

	Elem  *Schema   // tuple element / set element / zset element schema
	Items []*Schema // fixed-tuple / pair component schemas

	RecordName   string
	Discriminant string
	Fields       []FieldSchema

	ReferenceFQN string // valid when Kind == SchemaReference
}

// FieldSchema describes one record field's name and schema.
type FieldSchema struct {
	Name   string
	Schema *Schema
}

// Table is a global schema table keyed by fully-qualified record type name,
// used to resolve cyclic record types to a finite schema (spec §4.1,
// §9 "recursive record types").
type Table struct {
	byFQN map[string]*Schema
	// building tracks FQNs currently under construction, to detect cycles.
	building map[string]bool
}

// NewTable constructs an empty schema table.
func NewTable() *Table {
	return &Table{byFQN: map[string]*Schema{}, building: map[string]bool{}}
}

// RecordSchema returns the schema for the named record type, building it via
// build on first request and resolving any self-reference encountered during
// building (directly or transitively) to a SchemaReference node. Subsequent
// calls return the memoised schema.
func (t *Table) RecordSchema(fqn string, build func() (string, string, []FieldSchema)) *Schema {
	if s, ok := t.byFQN[fqn]; ok {
		return s
	}
	if t.building[fqn] {
		// Cyclic: return a reference node; the real schema will be filled
		// in once building completes below.
		return &Schema{Kind: SchemaReference, ReferenceFQN: fqn}
	}
	t.building[fqn] = true
	name, discriminant, fields := build()
	s := &Schema{Kind: SchemaRecord, RecordName: name, Discriminant: discriminant, Fields: fields}
	t.byFQN[fqn] = s
	delete(t.building, fqn)
	return s
}

// Resolve follows a SchemaReference node to its concrete schema. Panics if
// the FQN was never registered — a schema built with an unresolved
// self-reference that never completed is an internal construction bug.
func (t *Table) Resolve(s *Schema) *Schema {
	if s.Kind != SchemaReference {
		return s
	}
	resolved, ok := t.byFQN[s.ReferenceFQN]
	if !ok {
		panic(fmt.Sprintf("value: unresolved schema reference %q", s.ReferenceFQN))
	}
	return resolved
}

// AtomSchema builds the schema for an atom kind.
func AtomSchema(k Kind) *Schema { return &Schema{Kind: SchemaAtom, AtomKind: k} }

// TupleSchema builds a fixed-arity tuple schema.
func TupleSchema(items ...*Schema) *Schema { return &Schema{Kind: SchemaTuple, Items: items} }

// VariadicTupleSchema builds a variadic tuple schema over a single element
// schema.
func VariadicTupleSchema(elem *Schema) *Schema { return &Schema{Kind: SchemaVariadicTuple, Elem: elem} }

// SetSchema builds a frozen-set schema over a single element schema.
func SetSchema(elem *Schema) *Schema { return &Schema{Kind: SchemaSet, Elem: elem} }

// PairSchema builds a pair schema.
func PairSchema(first, second *Schema) *Schema {
	return &Schema{Kind: SchemaPair, Items: []*Schema{first, second}}
}

// ZSetSchema builds a Z-set-of-values schema over a single element schema.
func ZSetSchema(elem *Schema) *Schema { return &Schema{Kind: SchemaZSet, Elem: elem} }

// ValidateUnion checks that every alternative in a set of record schemas
// that share a discriminant field name carries a distinct discriminant
// value-space entry; atoms/tuples may participate in a union without a
// discriminant (disambiguated by shape). Returns an error naming the
// offending alternatives on a collision (spec §7 "union decoding with no
// matching alternative" is the decode-time twin of this build-time check).
func ValidateUnion(alts []*Schema) error {
	seen := map[string]bool{}
	for _, a := range alts {
		if a.Kind != SchemaRecord {
			continue // atoms/tuples disambiguate by shape, not discriminant
		}
		if a.Discriminant == "" {
			return fmt.Errorf("value: union alternative %q has no discriminant field", a.RecordName)
		}
		if seen[a.RecordName] {
			return fmt.Errorf("value: union has duplicate alternative %q", a.RecordName)
		}
		seen[a.RecordName] = true
	}
	return nil
}
