package schema

import (
	"errors"
	"fmt"
	"sort"

	"pisaetl/internal/record"
)

// ErrMissingRequired is returned by Normalize when a required field is absent.
var ErrMissingRequired = errors.New("required field missing")

// Report summarizes how a column set matches an entity.
type Report struct {
	Label       string
	NCols       int
	Missing     []string
	NMissing    int
	Extras      []string
	ExtrasCount int
	// MissingRequired is the subset of Missing that Normalize rejects.
	MissingRequired []string
	IsComplete      bool
}

// Check compares columns (already aliased) with e. It never fails; a bad
// match is described in the report.
func Check(columns []string, e Entity) Report {
	present := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		present[c] = struct{}{}
	}
	r := Report{Label: e.Name, NCols: len(columns)}
	for _, f := range e.Fields {
		if _, ok := present[f]; !ok {
			r.Missing = append(r.Missing, f)
		}
	}
	for _, f := range e.Required {
		if _, ok := present[f]; !ok {
			r.MissingRequired = append(r.MissingRequired, f)
		}
	}
	for c := range present {
		if !e.Has(c) {
			r.Extras = append(r.Extras, c)
		}
	}
	sort.Strings(r.Extras)
	r.NMissing = len(r.Missing)
	r.ExtrasCount = len(r.Extras)
	r.IsComplete = r.NMissing == 0
	return r
}

// Normalize renames t by e's aliases, checks it, and projects it onto the
// canonical fields: Fields order first, then pattern fields in sheet order.
// Only a missing required field is an error.
func Normalize(t *record.Table, e Entity) (Report, error) {
	RenameTable(t, e.Aliases)
	rep := Check(t.Columns, e)
	if len(rep.MissingRequired) > 0 {
		return rep, fmt.Errorf("%s: %w: %v", e.Name, ErrMissingRequired, rep.MissingRequired)
	}

	present := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		present[c] = true
	}
	cols := make([]string, 0, len(e.Fields))
	listed := make(map[string]bool, len(e.Fields))
	for _, f := range e.Fields {
		listed[f] = true
		if present[f] {
			cols = append(cols, f)
		}
	}
	for _, c := range t.Columns {
		if !listed[c] && e.Has(c) {
			cols = append(cols, c)
		}
	}

	keep := make(map[string]bool, len(cols))
	for _, c := range cols {
		keep[c] = true
	}
	for _, rec := range t.Records {
		for k := range rec {
			if !keep[k] {
				delete(rec, k)
			}
		}
	}
	t.Columns = cols
	return rep, nil
}
