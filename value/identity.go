package value

import (
	"crypto/md5"
	"encoding/hex"
)

// Identity returns the canonical identity bytes of v (spec §4.1): for atoms,
// the value's own canonical encoding (zero-byte overhead, no hashing); for
// composites, the MD5 of the canonical encoding. This is the primary key
// used by SQL-backed storage and the map key inside in-memory Z-sets.
func Identity(v Value) []byte {
	if v.identity != nil {
		return v.identity[:]
	}
	b := MustEncode(v)
	if v.IsAtom() {
		return b
	}
	sum := md5.Sum(b)
	return sum[:]
}

// IdentityHex is Identity hex-encoded, suitable as a comparable Go map key
// (Value itself holds slices/pointers and so isn't comparable with ==).
func IdentityHex(v Value) string {
	return hex.EncodeToString(Identity(v))
}

// Memoize computes and caches v's identity on the value itself, mirroring
// the Python original's per-value memoisation. Returns the (possibly
// shared-backing) Value with the cache populated; cheap to call repeatedly.
func Memoize(v Value) Value {
	if v.identity != nil || v.IsAtom() {
		return v
	}
	b := MustEncode(v)
	sum := md5.Sum(b)
	v.identity = &sum
	return v
}
