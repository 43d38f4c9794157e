package ddl

import (
	"regexp"
	"unicode/utf8"

	"pisaetl/internal/record"
)

// Identifier length bounds. 450 keeps an NVARCHAR key under SQL Server's
// 900-byte index limit.
const (
	minIdentifierLen     = 16
	maxIdentifierLen     = 450
	defaultIdentifierLen = 64

	shortTextLen = 255
	longTextLen  = 4000
)

// Hints names the columns whose category is known up front.
type Hints struct {
	// Identifiers are rendered as fixed-width text sized from the data.
	Identifiers []string
	// Measures are always floating point.
	Measures []string
	// MeasurePatterns match measure columns by name, e.g. ^PV\d+READ$.
	MeasurePatterns []*regexp.Regexp
}

func (h Hints) isIdentifier(name string) bool {
	for _, id := range h.Identifiers {
		if id == name {
			return true
		}
	}
	return false
}

func (h Hints) isMeasure(name string) bool {
	for _, m := range h.Measures {
		if m == name {
			return true
		}
	}
	for _, re := range h.MeasurePatterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// Infer derives a table definition for t named fqn. Every column is
// nullable:
//
//   - hinted identifiers: KindIdentifier, length = longest value clamped to
//     [16, 450] (64 when the column is empty)
//   - hinted measures: KindFloat
//   - otherwise KindFloat when every non-null value is a float, else
//     KindText with length 255, 4000 or 0 (unbounded) by the longest value
func Infer(t *record.Table, fqn string, h Hints) TableDef {
	def := TableDef{FQN: fqn, Columns: make([]ColumnDef, 0, len(t.Columns))}
	for _, name := range t.Columns {
		col := ColumnDef{Name: name, Nullable: true}
		values := t.Column(name)

		switch {
		case h.isIdentifier(name):
			col.Kind = KindIdentifier
			col.Length = identifierLen(values)
		case h.isMeasure(name):
			col.Kind = KindFloat
		case allFloat(values):
			col.Kind = KindFloat
		default:
			col.Kind = KindText
			col.Length = textLen(maxLen(values))
		}
		def.Columns = append(def.Columns, col)
	}
	return def
}

func maxLen(values []record.Value) int {
	n := 0
	for _, v := range values {
		if v.IsNull() {
			continue
		}
		if l := utf8.RuneCountInString(v.Text()); l > n {
			n = l
		}
	}
	return n
}

func identifierLen(values []record.Value) int {
	n := maxLen(values)
	if n == 0 {
		return defaultIdentifierLen
	}
	return max(minIdentifierLen, min(n, maxIdentifierLen))
}

func textLen(n int) int {
	switch {
	case n <= shortTextLen:
		return shortTextLen
	case n <= longTextLen:
		return longTextLen
	default:
		return 0
	}
}

// allFloat reports whether values has at least one float and no strings.
func allFloat(values []record.Value) bool {
	seen := false
	for _, v := range values {
		switch v.Kind() {
		case record.KindString:
			return false
		case record.KindFloat:
			seen = true
		}
	}
	return seen
}

// Rows projects tbl onto def's columns, converting each value to match its
// column kind: text and identifier columns receive strings, float columns
// receive float64. Values that do not fit (a string in a float column) and
// nulls become nil.
func (def TableDef) Rows(tbl *record.Table) [][]any {
	out := make([][]any, len(tbl.Records))
	for i, rec := range tbl.Records {
		row := make([]any, len(def.Columns))
		for j, c := range def.Columns {
			v := rec.Get(c.Name)
			switch {
			case v.IsNull():
				row[j] = nil
			case c.Kind == KindFloat:
				if v.IsFloat() {
					row[j] = v.Num()
				}
			default:
				row[j] = v.Text()
			}
		}
		out[i] = row
	}
	return out
}
