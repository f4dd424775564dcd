package types

import (
	"bytes"
	"fmt"
	"strconv"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	// KindNull is the SQL NULL variant.
	KindNull Kind = iota
	// KindInteger is a 64-bit signed integer.
	KindInteger
	// KindFloat is a 64-bit float.
	KindFloat
	// KindText is a UTF-8 byte sequence.
	KindText
	// KindBlob is a raw byte sequence.
	KindBlob
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindBlob:
		return "blob"
	default:
		return "unknown"
	}
}

// Value is the tagged cell representation shared by both backends.
//
// Every cell returned from either backend is losslessly representable as
// exactly one Value variant; narrower backend types (e.g. 32-bit integers)
// are widened, never truncated. Values are immutable once constructed.
type Value struct {
	kind Kind
	n    int64
	f    float64
	s    string
	b    []byte
}

// Null returns the NULL Value.
func Null() Value {
	return Value{kind: KindNull}
}

// Integer returns a Value holding a 64-bit signed integer.
func Integer(v int64) Value {
	return Value{kind: KindInteger, n: v}
}

// Float returns a Value holding a 64-bit float.
func Float(v float64) Value {
	return Value{kind: KindFloat, f: v}
}

// Text returns a Value holding a UTF-8 string.
func Text(v string) Value {
	return Value{kind: KindText, s: v}
}

// Blob returns a Value holding a raw byte sequence.
//
// The Value takes ownership of the slice; callers must not mutate it after
// construction.
func Blob(v []byte) Value {
	return Value{kind: KindBlob, b: v}
}

// Kind returns the variant tag of the Value.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether the Value is the NULL variant.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Int64 returns the integer payload. It is only meaningful for KindInteger.
func (v Value) Int64() int64 {
	return v.n
}

// Float64 returns the float payload. It is only meaningful for KindFloat.
func (v Value) Float64() float64 {
	return v.f
}

// Text returns the text payload. It is only meaningful for KindText.
func (v Value) Text() string {
	return v.s
}

// Blob returns the blob payload. It is only meaningful for KindBlob.
// Callers must not mutate the returned slice.
func (v Value) Blob() []byte {
	return v.b
}

// Equal reports whether two Values hold the same variant and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}

	switch v.kind {
	case KindNull:
		return true
	case KindInteger:
		return v.n == o.n
	case KindFloat:
		return v.f == o.f
	case KindText:
		return v.s == o.s
	case KindBlob:
		return bytes.Equal(v.b, o.b)
	default:
		return false
	}
}

// String returns a debug representation of the Value.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindInteger:
		return strconv.FormatInt(v.n, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindText:
		return strconv.Quote(v.s)
	case KindBlob:
		return fmt.Sprintf("blob(%d bytes)", len(v.b))
	default:
		return "unknown"
	}
}

// Column describes one column of a result schema.
type Column struct {
	// Name is the column name reported by the backend.
	Name string

	// DeclaredType is the backend-declared type name, when the backend
	// provides it (e.g. "INT8", "TEXT"). May be empty.
	DeclaredType string
}

// Row is an ordered sequence of Values aligned with the result column schema.
type Row []Value

// QueryResult is an ordered sequence of rows sharing one column schema.
//
// Invariant: every row has the same arity, equal to len(Columns).
type QueryResult struct {
	// Columns is the result column schema.
	Columns []Column

	// Rows holds the decoded result rows in backend order.
	Rows []Row
}

// Arity returns the number of columns in the result schema.
func (r *QueryResult) Arity() int {
	return len(r.Columns)
}

// Len returns the number of rows in the result.
func (r *QueryResult) Len() int {
	return len(r.Rows)
}
