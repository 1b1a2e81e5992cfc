package value

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// Decode reverses Encode given the Schema that produced it (spec §4.1: a
// schema is "built once per type" and shared by encode and decode alike).
// Unlike Encode, which needs only the value itself, Decode needs the shape
// up front — msgpack's wire form alone can't tell a
// tuple from a record from a set once they're all just arrays.
func Decode(s *Schema, data []byte) (Value, error) {
	switch s.Kind {
	case SchemaAtom:
		return decodeAtom(s.AtomKind, data)
	case SchemaTuple:
		items, err := decodeItems(data, s.Items)
		if err != nil {
			return Value{}, err
		}
		return Tuple(items...), nil
	case SchemaVariadicTuple:
		items, err := decodeElems(data, s.Elem)
		if err != nil {
			return Value{}, err
		}
		return VariadicTuple(items...), nil
	case SchemaSet:
		items, err := decodeElems(data, s.Elem)
		if err != nil {
			return Value{}, err
		}
		return FrozenSet(items...), nil
	case SchemaPair:
		if len(s.Items) != 2 {
			return Value{}, fmt.Errorf("value: Decode: pair schema must have exactly 2 items")
		}
		items, err := decodeItems(data, s.Items)
		if err != nil {
			return Value{}, err
		}
		return Pair(items[0], items[1]), nil
	case SchemaRecord:
		return decodeRecord(s, data)
	case SchemaZSet:
		// A Z-set nested inside another value (rather than sqlzset's own
		// top-level delay-vertex cell, which round-trips through
		// zset.ZSet directly) can't be reconstructed here: ZSetLike is
		// satisfied by zset.ZSet, and value can't import zset without a
		// cycle. Callers needing this shape decode the raw
		// [][encoded_value, count] pairs themselves.
		return Value{}, fmt.Errorf("value: Decode: nested zset schema requires a zset-aware caller")
	case SchemaReference:
		return Value{}, fmt.Errorf("value: Decode: unresolved schema reference %q, call Table.Resolve first", s.ReferenceFQN)
	default:
		return Value{}, fmt.Errorf("value: Decode: unhandled schema kind %d", s.Kind)
	}
}

func decodeAtom(k Kind, data []byte) (Value, error) {
	switch k {
	case KindNone:
		return None, nil
	case KindInt:
		var i int64
		if err := msgpack.Unmarshal(data, &i); err != nil {
			return Value{}, fmt.Errorf("value: Decode: int: %w", err)
		}
		return Int(i), nil
	case KindFloat:
		var f float64
		if err := msgpack.Unmarshal(data, &f); err != nil {
			return Value{}, fmt.Errorf("value: Decode: float: %w", err)
		}
		return Float(f), nil
	case KindBool:
		var b bool
		if err := msgpack.Unmarshal(data, &b); err != nil {
			return Value{}, fmt.Errorf("value: Decode: bool: %w", err)
		}
		return Bool(b), nil
	case KindString:
		var str string
		if err := msgpack.Unmarshal(data, &str); err != nil {
			return Value{}, fmt.Errorf("value: Decode: string: %w", err)
		}
		return String(str), nil
	case KindDate:
		var str string
		if err := msgpack.Unmarshal(data, &str); err != nil {
			return Value{}, fmt.Errorf("value: Decode: date: %w", err)
		}
		t, err := time.Parse("2006-01-02", str)
		if err != nil {
			return Value{}, fmt.Errorf("value: Decode: date: %w", err)
		}
		return Date(t), nil
	case KindTimestamp:
		var t time.Time
		if err := msgpack.Unmarshal(data, &t); err != nil {
			return Value{}, fmt.Errorf("value: Decode: timestamp: %w", err)
		}
		return Timestamp(t), nil
	case KindUUID:
		var str string
		if err := msgpack.Unmarshal(data, &str); err != nil {
			return Value{}, fmt.Errorf("value: Decode: uuid: %w", err)
		}
		u, err := uuid.Parse(str)
		if err != nil {
			return Value{}, fmt.Errorf("value: Decode: uuid: %w", err)
		}
		return UUID(u), nil
	default:
		return Value{}, fmt.Errorf("value: Decode: unhandled atom kind %s", k)
	}
}

func decodeItems(data []byte, schemas []*Schema) ([]Value, error) {
	var raws []msgpack.RawMessage
	if err := msgpack.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("value: Decode: %w", err)
	}
	if len(raws) != len(schemas) {
		return nil, fmt.Errorf("value: Decode: expected %d items, got %d", len(schemas), len(raws))
	}
	items := make([]Value, len(schemas))
	for i, sc := range schemas {
		v, err := Decode(sc, raws[i])
		if err != nil {
			return nil, err
		}
		items[i] = v
	}
	return items, nil
}

func decodeElems(data []byte, elem *Schema) ([]Value, error) {
	var raws []msgpack.RawMessage
	if err := msgpack.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("value: Decode: %w", err)
	}
	items := make([]Value, len(raws))
	for i, r := range raws {
		v, err := Decode(elem, r)
		if err != nil {
			return nil, err
		}
		items[i] = v
	}
	return items, nil
}

func decodeRecord(s *Schema, data []byte) (Value, error) {
	var raws []msgpack.RawMessage
	if err := msgpack.Unmarshal(data, &raws); err != nil {
		return Value{}, fmt.Errorf("value: Decode: record %s: %w", s.RecordName, err)
	}
	if len(raws) != len(s.Fields) {
		return Value{}, fmt.Errorf("value: Decode: record %s: expected %d fields, got %d", s.RecordName, len(s.Fields), len(raws))
	}
	fields := make([]Field, len(s.Fields))
	for i, fs := range s.Fields {
		v, err := Decode(fs.Schema, raws[i])
		if err != nil {
			return Value{}, err
		}
		fields[i] = Field{Name: fs.Name, Value: v}
	}
	return Data(&Record{TypeName: s.RecordName, Discriminant: s.Discriminant, Fields: fields}), nil
}
