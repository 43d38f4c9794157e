// Package report computes descriptive data-quality summaries of normalized
// PISA tables and renders them as plain text.
package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"pisaetl/internal/record"
	"pisaetl/internal/schema"
)

// Fields names the columns the checks look at.
type Fields struct {
	StudentID string
	SchoolID  string
	Weight    string
	ESCS      string
	// Sentinel lists the fields scanned for the -9..-5 missing codes.
	Sentinel []string
	PVs      []string
}

// DefaultFields matches schema.Student.
func DefaultFields() Fields {
	return Fields{
		StudentID: "STIDSTD",
		SchoolID:  "SCHOOLID",
		Weight:    "W_FSTUWT",
		ESCS:      "ESCS",
		Sentinel:  []string{"ESCS", "DISCLIMA", "TEACHSUP", "REPEAT", "LANGN", "IMMIG"},
		PVs:       schema.PVRead(10),
	}
}

// ESCS values outside this range are implausible.
const (
	escsMin = -6
	escsMax = 6
)

// Item is one key/value line of a section.
type Item struct {
	Key   string
	Value any
}

// Section is an ordered list of items.
type Section []Item

// Pct returns 100*n/d, or 0 when d is 0.
func Pct(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return 100 * float64(n) / float64(d)
}

// SchemaSection renders a schema check.
func SchemaSection(r schema.Report) Section {
	return Section{
		{"label", r.Label},
		{"n_cols", r.NCols},
		{"missing", r.Missing},
		{"n_missing", r.NMissing},
		{"extras_count", r.ExtrasCount},
		{"is_complete", r.IsComplete},
	}
}

// Format writes each section under a title banner. Booleans render as
// "ok" or "WARN".
func Format(w io.Writer, title string, sections ...Section) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\n===== %s =====\n", title)
	for _, sec := range sections {
		for _, it := range sec {
			fmt.Fprintf(&b, "%s: %s\n", it.Key, render(it.Value))
		}
		b.WriteString(strings.Repeat("-", 40) + "\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func render(v any) string {
	switch t := v.(type) {
	case bool:
		if t {
			return "ok"
		}
		return "WARN"
	case float64:
		if math.IsNaN(t) {
			return "n/a"
		}
		return fmt.Sprintf("%.2f", t)
	case nil:
		return "n/a"
	default:
		return fmt.Sprint(t)
	}
}

// num returns v as a float when it is one or parses as one.
func num(v record.Value) (float64, bool) {
	switch v.Kind() {
	case record.KindFloat:
		return v.Num(), true
	case record.KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str()), 64)
		if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f, true
		}
	}
	return 0, false
}
