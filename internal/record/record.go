// Package record defines the tagged value model that flows between the xlsx
// reader, the schema normalizer and the storage sinks.
//
// Spreadsheet cells arrive as strings. After normalization every field holds
// exactly one of three kinds: Null, String or Float. NaN and infinities never
// survive construction; they collapse to Null because neither Mongo nor SQL
// Server accepts them as regular values.
package record

import (
	"math"
	"strconv"
)

// Kind tags the dynamic type held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindFloat:
		return "float"
	default:
		return "null"
	}
}

// Value is a scalar cell value. The zero Value is Null.
type Value struct {
	kind Kind
	s    string
	f    float64
}

// Null returns the explicit null marker.
func Null() Value { return Value{} }

// String wraps s as a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Float wraps f. NaN and ±Inf become Null.
func Float(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null()
	}
	return Value{kind: KindFloat, f: f}
}

func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsNull() bool   { return v.kind == KindNull }
func (v Value) Str() string    { return v.s }
func (v Value) Num() float64   { return v.f }
func (v Value) IsFloat() bool  { return v.kind == KindFloat }
func (v Value) IsString() bool { return v.kind == KindString }

// Any returns the value as nil, string or float64 for driver consumption.
func (v Value) Any() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindFloat:
		return v.f
	default:
		return nil
	}
}

// Text renders the value for display and length measurement. Null renders
// as the empty string.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	default:
		return ""
	}
}

// Record maps a field name to its value. A field absent from the map is
// treated as Null.
type Record map[string]Value

// Get returns the value for field, or Null when absent.
func (r Record) Get(field string) Value { return r[field] }

// Table is an ordered set of records sharing one column list.
type Table struct {
	// Name is the logical source label, e.g. "STU_BRA" or "SCH_BRA__data".
	Name    string
	Columns []string
	Records []Record
}

// Len reports the number of records.
func (t *Table) Len() int { return len(t.Records) }

// Rows projects the records onto t.Columns, producing driver-ready values.
// Null fields are emitted as nil.
func (t *Table) Rows() [][]any {
	out := make([][]any, len(t.Records))
	for i, rec := range t.Records {
		row := make([]any, len(t.Columns))
		for j, c := range t.Columns {
			row[j] = rec.Get(c).Any()
		}
		out[i] = row
	}
	return out
}

// Column returns the values of one field in record order.
func (t *Table) Column(field string) []Value {
	out := make([]Value, len(t.Records))
	for i, rec := range t.Records {
		out[i] = rec.Get(field)
	}
	return out
}

// HasColumn reports whether field is part of the column list.
func (t *Table) HasColumn(field string) bool {
	for _, c := range t.Columns {
		if c == field {
			return true
		}
	}
	return false
}
