package domain

import (
	"strconv"
)

// Kind identifies a Value variant.
type Kind uint8

// Value kinds.
const (
	KindNil Kind = iota
	KindInt
	KindStr
	KindList
	KindArray
	KindSet
	KindHash
	KindZSet
)

// String returns the name TYPE reports for the kind.
func (k Kind) String() string {
	switch k {
	case KindInt, KindStr:
		return "string"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindHash:
		return "hash"
	case KindZSet:
		return "zset"
	case KindArray:
		return "array"
	default:
		return "none"
	}
}

// Value is the tagged union of storable data and reply payloads.
//
// Int, Str, *List and Set are storable. Array only appears in replies.
// Hash and ZSet are named by TYPE but never created by a command.
type Value interface {
	Kind() Kind
}

// Nil is the absent value.
type Nil struct{}

// Int is a signed 64-bit integer value.
type Int int64

// Str is a text value.
type Str string

// Array is an ordered reply of values.
type Array []Value

// Set is an unordered collection of unique strings.
type Set map[string]struct{}

// Hash is reserved for the hash type.
type Hash map[string]string

// ZSet is reserved for the sorted set type.
type ZSet map[string]float64

func (Nil) Kind() Kind   { return KindNil }
func (Int) Kind() Kind   { return KindInt }
func (Str) Kind() Kind   { return KindStr }
func (*List) Kind() Kind { return KindList }
func (Array) Kind() Kind { return KindArray }
func (Set) Kind() Kind   { return KindSet }
func (Hash) Kind() Kind  { return KindHash }
func (ZSet) Kind() Kind  { return KindZSet }

// IsScalar reports whether v is a string-typed value (Int or Str).
func IsScalar(v Value) bool {
	k := v.Kind()
	return k == KindInt || k == KindStr
}

// Text returns the textual form of a scalar value.
// ok is false for non-scalar values.
func Text(v Value) (s string, ok bool) {
	switch x := v.(type) {
	case Int:
		return strconv.FormatInt(int64(x), 10), true
	case Str:
		return string(x), true
	default:
		return "", false
	}
}

// ParseScalar returns Int when s is a complete signed 64-bit integer,
// otherwise Str.
func ParseScalar(s string) Value {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && isCanonicalInt(s) {
		return Int(n)
	}
	return Str(s)
}

// isCanonicalInt rejects forms like "+1" or "007" that ParseInt accepts
// but that would not survive a round-trip through Text.
func isCanonicalInt(s string) bool {
	digits := s
	if len(digits) > 0 && digits[0] == '-' {
		digits = digits[1:]
	}
	if digits == "" {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	if len(digits) > 1 && digits[0] == '0' {
		return false
	}
	return s != "-0"
}

// ExpireTime associates a key with an absolute expiry timestamp in
// milliseconds since the Unix epoch.
type ExpireTime struct {
	Key      string
	ExpireAt int64
}

// Less orders expiry records soonest first, breaking ties by key.
func (e ExpireTime) Less(o ExpireTime) bool {
	if e.ExpireAt != o.ExpireAt {
		return e.ExpireAt < o.ExpireAt
	}
	return e.Key < o.Key
}
