// Package types provides the canonical value representation shared by the
// compiler, adapters and executor. Values are a closed sum: the kind is fixed
// at construction time from the declared schema type, never inferred from the
// runtime shape of the data.
package types

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind identifies the concrete variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt64
	KindBigInt
	KindFloat64
	KindDecimal
	KindBool
	KindText
	KindTimestamp
	KindJSON
	KindBytes
	KindUUID
)

// String returns the canonical name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt64:
		return "int64"
	case KindBigInt:
		return "bigint"
	case KindFloat64:
		return "float64"
	case KindDecimal:
		return "decimal"
	case KindBool:
		return "bool"
	case KindText:
		return "text"
	case KindTimestamp:
		return "timestamp"
	case KindJSON:
		return "json"
	case KindBytes:
		return "bytes"
	case KindUUID:
		return "uuid"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Tag is the closed type-tag enumeration used to disambiguate value
// serialization to and from each backend's wire format. It is assigned from
// the declared schema field type, both for statement arguments and for
// returned columns.
type Tag uint8

const (
	TagInt32 Tag = iota
	TagInt64
	TagBigInt
	TagFloat64
	TagDecimal
	TagBool
	TagText
	TagTimestamp
	TagJSON
	TagBytes
	TagUUID
)

// String returns the canonical name of the tag.
func (t Tag) String() string {
	switch t {
	case TagInt32:
		return "int32"
	case TagInt64:
		return "int64"
	case TagBigInt:
		return "bigint"
	case TagFloat64:
		return "float64"
	case TagDecimal:
		return "decimal"
	case TagBool:
		return "bool"
	case TagText:
		return "text"
	case TagTimestamp:
		return "timestamp"
	case TagJSON:
		return "json"
	case TagBytes:
		return "bytes"
	case TagUUID:
		return "uuid"
	default:
		return fmt.Sprintf("tag(%d)", uint8(t))
	}
}

// Kind returns the value kind a column decoded under this tag will carry.
func (t Tag) Kind() Kind {
	switch t {
	case TagInt32, TagInt64:
		return KindInt64
	case TagBigInt:
		return KindBigInt
	case TagFloat64:
		return KindFloat64
	case TagDecimal:
		return KindDecimal
	case TagBool:
		return KindBool
	case TagText:
		return KindText
	case TagTimestamp:
		return KindTimestamp
	case TagJSON:
		return KindJSON
	case TagBytes:
		return KindBytes
	case TagUUID:
		return KindUUID
	default:
		return KindNull
	}
}

// Value is an immutable tagged scalar. The zero Value is SQL NULL.
type Value struct {
	kind Kind

	i  int64
	f  float64
	b  bool
	s  string // text, decimal and json payloads
	t  time.Time
	by []byte
	bi *big.Int
	u  uuid.UUID
}

// Null returns the SQL NULL value.
func Null() Value { return Value{} }

// Int64 returns an integer value.
func Int64(v int64) Value { return Value{kind: KindInt64, i: v} }

// BigInt returns an arbitrary-precision integer value. The argument is copied.
func BigInt(v *big.Int) Value {
	return Value{kind: KindBigInt, bi: new(big.Int).Set(v)}
}

// Float64 returns an IEEE double value.
func Float64(v float64) Value { return Value{kind: KindFloat64, f: v} }

// DecimalValue returns an exact decimal value.
func DecimalValue(d Decimal) Value { return Value{kind: KindDecimal, s: d.String()} }

// Bool returns a boolean value.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Text returns a text value.
func Text(v string) Value { return Value{kind: KindText, s: v} }

// Timestamp returns a timestamp value normalized to UTC.
func Timestamp(v time.Time) Value { return Value{kind: KindTimestamp, t: v.UTC()} }

// JSON returns a structured JSON value from its serialized form.
func JSON(raw json.RawMessage) Value { return Value{kind: KindJSON, s: string(raw)} }

// Bytes returns a raw byte value. The slice is copied.
func Bytes(v []byte) Value {
	cp := make([]byte, len(v))
	copy(cp, v)
	return Value{kind: KindBytes, by: cp}
}

// UUID returns a UUID value.
func UUID(v uuid.UUID) Value { return Value{kind: KindUUID, u: v} }

// Kind reports the variant held by the value.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is SQL NULL.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsInt64 returns the integer payload. Valid only for KindInt64.
func (v Value) AsInt64() int64 { return v.i }

// AsBigInt returns a copy of the arbitrary-precision payload.
func (v Value) AsBigInt() *big.Int { return new(big.Int).Set(v.bi) }

// AsFloat64 returns the double payload.
func (v Value) AsFloat64() float64 { return v.f }

// AsDecimal returns the exact decimal payload.
func (v Value) AsDecimal() Decimal { return NewDecimal(v.s) }

// AsBool returns the boolean payload.
func (v Value) AsBool() bool { return v.b }

// AsText returns the text payload.
func (v Value) AsText() string { return v.s }

// AsTimestamp returns the UTC timestamp payload.
func (v Value) AsTimestamp() time.Time { return v.t }

// AsJSON returns the serialized JSON payload.
func (v Value) AsJSON() json.RawMessage { return json.RawMessage(v.s) }

// AsBytes returns a copy of the byte payload.
func (v Value) AsBytes() []byte {
	cp := make([]byte, len(v.by))
	copy(cp, v.by)
	return cp
}

// AsUUID returns the UUID payload.
func (v Value) AsUUID() uuid.UUID { return v.u }

// Driver converts the value to a representation accepted by database/sql
// drivers. NULL maps to nil; exact decimals and big integers travel as their
// string forms so no precision is lost on the wire.
func (v Value) Driver() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindInt64:
		return v.i
	case KindBigInt:
		return v.bi.String()
	case KindFloat64:
		return v.f
	case KindDecimal:
		return v.s
	case KindBool:
		return v.b
	case KindText:
		return v.s
	case KindTimestamp:
		return v.t
	case KindJSON:
		return []byte(v.s)
	case KindBytes:
		return v.by
	case KindUUID:
		return v.u.String()
	default:
		return nil
	}
}

// Equal reports deep equality between two values, including kind.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindInt64:
		return v.i == o.i
	case KindBigInt:
		return v.bi.Cmp(o.bi) == 0
	case KindFloat64:
		return v.f == o.f
	case KindDecimal, KindText, KindJSON:
		return v.s == o.s
	case KindBool:
		return v.b == o.b
	case KindTimestamp:
		return v.t.Equal(o.t)
	case KindBytes:
		return string(v.by) == string(o.by)
	case KindUUID:
		return v.u == o.u
	default:
		return false
	}
}

// Compare orders two values of the same kind: -1, 0 or 1. The second return
// is false when the kinds differ or the kind has no natural order.
func (v Value) Compare(o Value) (int, bool) {
	if v.kind != o.kind {
		return 0, false
	}
	switch v.kind {
	case KindInt64:
		return cmpOrdered(v.i, o.i), true
	case KindBigInt:
		return v.bi.Cmp(o.bi), true
	case KindFloat64:
		return cmpOrdered(v.f, o.f), true
	case KindDecimal:
		a, aok := new(big.Float).SetString(v.s)
		b, bok := new(big.Float).SetString(o.s)
		if !aok || !bok {
			return 0, false
		}
		return a.Cmp(b), true
	case KindText:
		return strings.Compare(v.s, o.s), true
	case KindTimestamp:
		return v.t.Compare(o.t), true
	default:
		return 0, false
	}
}

func cmpOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// String renders the value for logs and error messages.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindInt64:
		return fmt.Sprintf("%d", v.i)
	case KindBigInt:
		return v.bi.String()
	case KindFloat64:
		return fmt.Sprintf("%g", v.f)
	case KindDecimal, KindText, KindJSON:
		return v.s
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindTimestamp:
		return v.t.Format(time.RFC3339Nano)
	case KindBytes:
		return fmt.Sprintf("%d bytes", len(v.by))
	case KindUUID:
		return v.u.String()
	default:
		return v.kind.String()
	}
}
