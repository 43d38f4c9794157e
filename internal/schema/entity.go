// Package schema holds the canonical field sets of the PISA entities and the
// normalizer that maps a raw sheet onto them.
package schema

import (
	"fmt"
	"regexp"

	"pisaetl/internal/ddl"
)

// pvRead matches the reading plausible-value columns PV1READ..PVnREAD.
var pvRead = regexp.MustCompile(`^PV\d+READ$`)

// Entity describes one canonical record shape.
type Entity struct {
	Name string
	// Target is the sink name the entity is loaded into, e.g. "STU_BRA".
	Target string
	// FilePatterns locate the workbook (see file.Find).
	FilePatterns []string
	// Fields is the ordered canonical field set.
	Fields []string
	// FieldPatterns admit extra canonical fields by name.
	FieldPatterns []*regexp.Regexp
	Aliases       Aliases
	// Required fields must exist after aliasing or the sheet is rejected.
	Required []string
	// Identifiers are trimmed to strings; Numeric fields are coerced.
	Identifiers     []string
	Numeric         []string
	NumericPatterns []*regexp.Regexp
	// DropEmpty lists fields whose empty value drops the row.
	DropEmpty []string
	// DedupKey, when set, keeps the first row per key value.
	DedupKey string
}

// PVRead returns PV1READ..PVnREAD.
func PVRead(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("PV%dREAD", i+1)
	}
	return out
}

// Student is the PISA student questionnaire entity (STU_BRA.xlsx).
func Student() Entity {
	return Entity{
		Name:         "student",
		Target:       "STU_BRA",
		FilePatterns: []string{"STU_BRA.xlsx", "STU/STU_BRA.xlsx"},
		Fields: append([]string{
			"STIDSTD", "SCHOOLID", "W_FSTUWT", "ESCS", "DISCLIMA",
			"ST004D01T", "REPEAT", "LANGN", "IMMIG",
		}, PVRead(10)...),
		FieldPatterns: []*regexp.Regexp{pvRead},
		Aliases: Aliases{
			{From: "CNTSTUID", To: "STIDSTD"},
			{From: "CNTSCHID", To: "SCHOOLID"},
		},
		Required:        []string{"SCHOOLID"},
		Identifiers:     []string{"STIDSTD", "SCHOOLID"},
		Numeric:         []string{"W_FSTUWT", "ESCS", "DISCLIMA"},
		NumericPatterns: []*regexp.Regexp{pvRead},
		DropEmpty:       []string{"SCHOOLID"},
	}
}

// School is the PISA school questionnaire entity (SCH_BRA.xlsx).
func School() Entity {
	return Entity{
		Name:         "school",
		Target:       "SCH_BRA",
		FilePatterns: []string{"SCH_BRA.xlsx", "SCH/SCH_BRA.xlsx"},
		Fields:       []string{"SCHOOLID", "SCMATEDU", "TCSHORT"},
		Aliases: Aliases{
			{From: "CNTSCHID", To: "SCHOOLID"},
		},
		Required:    []string{"SCHOOLID"},
		Identifiers: []string{"SCHOOLID"},
		Numeric:     []string{"SCMATEDU", "TCSHORT"},
		DedupKey:    "SCHOOLID",
	}
}

// Has reports whether field belongs to the canonical set.
func (e Entity) Has(field string) bool {
	for _, f := range e.Fields {
		if f == field {
			return true
		}
	}
	for _, re := range e.FieldPatterns {
		if re.MatchString(field) {
			return true
		}
	}
	return false
}

// IsNumeric reports whether field is coerced to a number.
func (e Entity) IsNumeric(field string) bool {
	for _, f := range e.Numeric {
		if f == field {
			return true
		}
	}
	for _, re := range e.NumericPatterns {
		if re.MatchString(field) {
			return true
		}
	}
	return false
}

// Wants reports whether a raw header is worth reading: a canonical field or
// an alias source.
func (e Entity) Wants(header string) bool {
	if e.Has(header) {
		return true
	}
	for _, a := range e.Aliases {
		if a.From == header {
			return true
		}
	}
	return false
}

// Hints returns the DDL hints for relational sinks.
func (e Entity) Hints() ddl.Hints {
	return ddl.Hints{
		Identifiers:     e.Identifiers,
		Measures:        e.Numeric,
		MeasurePatterns: e.NumericPatterns,
	}
}
