package value

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/vmihailenco/msgpack/v5"
)

// Encode produces the deterministic canonical byte form of v (spec §4.1):
// atoms in msgpack-native form; dates as "YYYY-MM-DD" strings; timestamps
// normalised to UTC via msgpack's time extension; tuples/pairs/records as
// ordered msgpack arrays of the encoded sub-values; frozen sets as arrays
// sorted by encoded bytes; Z-sets as arrays of [encoded_value, count] sorted
// by encoded value. Enums encode as their underlying atom, with no tag
// overhead.
func Encode(v Value) ([]byte, error) {
	switch v.kind {
	case KindNone:
		return msgpack.Marshal(nil)
	case KindInt:
		return msgpack.Marshal(v.i)
	case KindFloat:
		return msgpack.Marshal(v.f)
	case KindBool:
		return msgpack.Marshal(v.b)
	case KindString:
		return msgpack.Marshal(v.s)
	case KindDate:
		return msgpack.Marshal(v.t.Format("2006-01-02"))
	case KindTimestamp:
		return msgpack.Marshal(v.t)
	case KindUUID:
		return msgpack.Marshal(v.u.String())
	case KindEnum:
		return Encode(*v.enumVal)
	case KindTuple, KindVariadicTuple:
		raws, err := encodeAll(v.items)
		if err != nil {
			return nil, err
		}
		return msgpack.Marshal(raws)
	case KindSet:
		encoded := make([][]byte, len(v.items))
		for i, it := range v.items {
			b, err := Encode(it)
			if err != nil {
				return nil, err
			}
			encoded[i] = b
		}
		sort.Slice(encoded, func(i, j int) bool { return bytes.Compare(encoded[i], encoded[j]) < 0 })
		raws := make([]msgpack.RawMessage, len(encoded))
		for i, b := range encoded {
			raws[i] = b
		}
		return msgpack.Marshal(raws)
	case KindPair:
		a, err := Encode(v.pair[0])
		if err != nil {
			return nil, err
		}
		b, err := Encode(v.pair[1])
		if err != nil {
			return nil, err
		}
		return msgpack.Marshal([]msgpack.RawMessage{a, b})
	case KindRecord:
		fieldVals := make([]Value, len(v.record.Fields))
		for i, f := range v.record.Fields {
			fieldVals[i] = f.Value
		}
		raws, err := encodeAll(fieldVals)
		if err != nil {
			return nil, err
		}
		return msgpack.Marshal(raws)
	case KindZSet:
		entries := v.zset.Entries()
		type kv struct {
			b []byte
			c int64
		}
		ps := make([]kv, len(entries))
		for i, e := range entries {
			b, err := Encode(e.V)
			if err != nil {
				return nil, err
			}
			ps[i] = kv{b, e.C}
		}
		sort.Slice(ps, func(i, j int) bool { return bytes.Compare(ps[i].b, ps[j].b) < 0 })
		raws := make([]msgpack.RawMessage, len(ps))
		for i, p := range ps {
			cb, err := msgpack.Marshal(p.c)
			if err != nil {
				return nil, err
			}
			pairBytes, err := msgpack.Marshal([]msgpack.RawMessage{p.b, cb})
			if err != nil {
				return nil, err
			}
			raws[i] = pairBytes
		}
		return msgpack.Marshal(raws)
	default:
		return nil, fmt.Errorf("value: Encode: unhandled kind %s", v.kind)
	}
}

func encodeAll(items []Value) ([]msgpack.RawMessage, error) {
	raws := make([]msgpack.RawMessage, len(items))
	for i, it := range items {
		b, err := Encode(it)
		if err != nil {
			return nil, err
		}
		raws[i] = b
	}
	return raws, nil
}

// MustEncode is Encode but panics on error; useful where the value tree is
// known-closed (no unencodable kinds reachable).
func MustEncode(v Value) []byte {
	b, err := Encode(v)
	if err != nil {
		panic(err)
	}
	return b
}
