// Package builtin contains the cleaning steps applied to normalized records.
package builtin

import "pisaetl/internal/record"

// Require removes any record missing a value for one of the fields. Dropped
// counts removed records across calls.
type Require struct {
	Fields []string

	Dropped int64
}

// Apply filters in place.
func (r *Require) Apply(in []record.Record) []record.Record {
	out := in[:0]
	for _, rec := range in {
		ok := true
		for _, f := range r.Fields {
			v := rec.Get(f)
			if v.IsNull() || (v.IsString() && v.Str() == "") {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, rec)
		} else {
			r.Dropped++
		}
	}
	return out
}
