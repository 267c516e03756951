package kdata2

import "fmt"

// ColumnType is the scalar/binary type of a column, using the same wire
// values as the envelope's "type" JSON field.
type ColumnType int

// Column type wire values, per the envelope format.
const (
	TypeNull ColumnType = iota
	TypeInteger
	TypeText
	TypeBinary
	TypeFloat
)

// String implements fmt.Stringer.
func (t ColumnType) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeInteger:
		return "integer"
	case TypeText:
		return "text"
	case TypeBinary:
		return "binary"
	case TypeFloat:
		return "float"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// Valid reports whether t is one of the known wire values.
func (t ColumnType) Valid() bool {
	switch t {
	case TypeNull, TypeInteger, TypeText, TypeBinary, TypeFloat:
		return true
	default:
		return false
	}
}

// Value holds one scalar/binary column value. Exactly one of the typed
// fields is meaningful, selected by Type.
type Value struct {
	Type   ColumnType
	Int    int64
	Float  float64
	Text   string
	Binary []byte
}

// IsNull reports whether the value represents SQL NULL.
func (v Value) IsNull() bool {
	return v.Type == TypeNull
}

// Int64Value builds an Integer Value.
func Int64Value(v int64) Value { return Value{Type: TypeInteger, Int: v} }

// FloatValue builds a Float Value.
func FloatValue(v float64) Value { return Value{Type: TypeFloat, Float: v} }

// TextValue builds a Text Value.
func TextValue(v string) Value { return Value{Type: TypeText, Text: v} }

// BinaryValue builds a Binary Value.
func BinaryValue(v []byte) Value { return Value{Type: TypeBinary, Binary: v} }
