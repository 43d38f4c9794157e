package builtin

import (
	"regexp"
	"strconv"
	"strings"

	"pisaetl/internal/record"
)

// CoerceNumeric turns the named fields into floats. Values that do not parse
// become Null; records are never dropped. Nulled counts the coerced-to-null
// cells across calls.
type CoerceNumeric struct {
	Fields   []string
	Patterns []*regexp.Regexp

	Nulled int64
}

func (c *CoerceNumeric) Apply(in []record.Record) []record.Record {
	if len(in) == 0 || (len(c.Fields) == 0 && len(c.Patterns) == 0) {
		return in
	}
	for _, r := range in {
		for field, v := range r {
			if !c.matches(field) {
				continue
			}
			nv := toFloat(v)
			if nv.IsNull() && !v.IsNull() {
				c.Nulled++
			}
			r[field] = nv
		}
	}
	return in
}

func (c *CoerceNumeric) matches(field string) bool {
	for _, f := range c.Fields {
		if f == field {
			return true
		}
	}
	for _, re := range c.Patterns {
		if re.MatchString(field) {
			return true
		}
	}
	return false
}

func toFloat(v record.Value) record.Value {
	switch v.Kind() {
	case record.KindFloat, record.KindNull:
		return v
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.Str()), 64)
	if err != nil {
		return record.Null()
	}
	return record.Float(f)
}
