// Package index implements Index[T,K] (spec §3): a deterministic
// key-extraction function over the value universe, plus the ordering and
// naming metadata needed for SQL column generation and in-memory ordered
// iteration.
//
// Go has no runtime attribute-access interception the way the original
// Python engine uses a type-introspection proxy to discover field paths
// from a lambda (spec §9 design note (a)); this package implements design
// note (b) instead — callers name the field paths explicitly — see
// DESIGN.md's Open Question log.
package index

import (
	"strings"
	"sync"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/syssam/stepping/value"
)

// stringCollator orders KindString atoms (spec §4.2). A Collator keeps a
// reusable internal buffer, so concurrent compareAtom calls (vertices can
// evaluate in parallel per scheduler's errgroup fan-out) share it under
// collatorMu rather than risk a data race.
var (
	collatorMu     sync.Mutex
	stringCollator = collate.New(language.Und)
)

// Direction is a per-component sort direction.
type Direction uint8

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

// Descriptor is an Index's display/SQL-facing metadata: one field path name
// and direction per key component, the static key kind, and whether the key
// is composite (spec §3).
type Descriptor struct {
	Name         string
	Fields       []string
	Directions   []Direction
	KeyAtomKinds []value.Kind // per-component atom kind; len 1 for an atom key
	IsComposite  bool
}

// Equal reports whether two descriptors name the same index: same field
// names, directions, and key shape (spec §3: "Two indexes are equal iff
// their field names, directions, source type, and key type coincide").
func (d Descriptor) Equal(o Descriptor) bool {
	if d.IsComposite != o.IsComposite || len(d.Fields) != len(o.Fields) {
		return false
	}
	for i := range d.Fields {
		if d.Fields[i] != o.Fields[i] || d.Directions[i] != o.Directions[i] || d.KeyAtomKinds[i] != o.KeyAtomKinds[i] {
			return false
		}
	}
	return true
}

// ColumnName returns the deterministic SQL column name for the i'th key
// component of an index named by this descriptor, following spec §6's
// `ixd__<indexName>__<field>` convention. Field path segments are
// snake_cased via inflect, matching the teacher's naming convention for
// Go-field-to-column translation (schema/field/doc.go).
func (d Descriptor) ColumnName(i int) string {
	field := strings.ReplaceAll(d.Fields[i], ".", "_")
	return "ixd__" + d.Name + "__" + inflect.Underscore(field)
}

// Index is a deterministic key-extraction function over value.Value,
// together with its Descriptor.
type Index struct {
	desc    Descriptor
	keyFunc func(value.Value) value.Value
}

// New constructs an Index from explicit field-path names/directions/atom
// kinds and a key-extraction function. len(fields) == 1 and atomKinds[0]
// produces a non-composite (atom) index; more than one produces a
// composite (tuple) index.
func New(name string, fields []string, dirs []Direction, atomKinds []value.Kind, keyFunc func(value.Value) value.Value) *Index {
	if len(fields) != len(dirs) || len(fields) != len(atomKinds) {
		panic("index: fields/directions/atomKinds length mismatch")
	}
	return &Index{
		desc: Descriptor{
			Name:         name,
			Fields:       append([]string(nil), fields...),
			Directions:   append([]Direction(nil), dirs...),
			KeyAtomKinds: append([]value.Kind(nil), atomKinds...),
			IsComposite:  len(fields) > 1,
		},
		keyFunc: keyFunc,
	}
}

// Atom builds a single-component (non-composite) index.
func Atom(name, field string, dir Direction, atomKind value.Kind, keyFunc func(value.Value) value.Value) *Index {
	return New(name, []string{field}, []Direction{dir}, []value.Kind{atomKind}, keyFunc)
}

// Composite builds a multi-component index whose key is a fixed tuple.
func Composite(name string, fields []string, dirs []Direction, atomKinds []value.Kind, keyFunc func(value.Value) value.Value) *Index {
	return New(name, fields, dirs, atomKinds, keyFunc)
}

// Identity returns the index whose key function is the identity — spec
// §3's `Index.identity(T)`.
func Identity(atomKind value.Kind) *Index {
	return Atom("identity", "", Asc, atomKind, func(v value.Value) value.Value { return v })
}

// Descriptor returns the index's display/SQL metadata.
func (ix *Index) Descriptor() Descriptor { return ix.desc }

// KeyOf applies the index's key-extraction function.
func (ix *Index) KeyOf(v value.Value) value.Value { return ix.keyFunc(v) }

// Equal reports whether two indexes are the same index per spec §3.
func (ix *Index) Equal(o *Index) bool { return ix.desc.Equal(o.desc) }

// Compare orders two keys according to the index's declared per-component
// directions: for an atom key, natural order with None least; for a
// composite (tuple) key, lexicographic with each component's direction
// flag XORed against the base comparison (spec §4.2).
func (ix *Index) Compare(a, b value.Value) int {
	if !ix.desc.IsComposite {
		c := compareAtom(a, b)
		if ix.desc.Directions[0] == Desc {
			return -c
		}
		return c
	}
	ai, bi := a.Items(), b.Items()
	for i := range ai {
		c := compareAtom(ai[i], bi[i])
		if ix.desc.Directions[i] == Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// compareAtom orders two atom values, treating None as least (spec §4.2).
func compareAtom(a, b value.Value) int {
	aNone, bNone := a.Kind() == value.KindNone, b.Kind() == value.KindNone
	switch {
	case aNone && bNone:
		return 0
	case aNone:
		return -1
	case bNone:
		return 1
	}
	switch a.Kind() {
	case value.KindInt:
		return cmpInt(a.Int64(), b.Int64())
	case value.KindFloat:
		return cmpFloat(a.Float64(), b.Float64())
	case value.KindBool:
		return cmpBool(a.BoolVal(), b.BoolVal())
	case value.KindString:
		collatorMu.Lock()
		defer collatorMu.Unlock()
		return stringCollator.CompareString(a.Str(), b.Str())
	case value.KindDate, value.KindTimestamp:
		at, bt := a.Time(), b.Time()
		switch {
		case at.Before(bt):
			return -1
		case at.After(bt):
			return 1
		default:
			return 0
		}
	case value.KindUUID:
		return strings.Compare(a.UUIDVal().String(), b.UUIDVal().String())
	case value.KindEnum:
		return strings.Compare(a.EnumName(), b.EnumName())
	default:
		// Composite atoms shouldn't reach here; fall back to byte order
		// of the canonical encoding for a total, deterministic order.
		ab, bb := value.MustEncode(a), value.MustEncode(b)
		for i := 0; i < len(ab) && i < len(bb); i++ {
			if ab[i] != bb[i] {
				if ab[i] < bb[i] {
					return -1
				}
				return 1
			}
		}
		return cmpInt(int64(len(ab)), int64(len(bb)))
	}
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
