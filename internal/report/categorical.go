package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"pisaetl/internal/record"
)

// MissingLabel and OtherLabel name the synthetic levels.
const (
	MissingLabel = "<missing>"
	OtherLabel   = "<other levels>"
)

// Level is one value of a categorical column.
type Level struct {
	Label string
	Count int
	Pct   float64
}

// Categorical describes the distribution of one text column.
type Categorical struct {
	Column  string
	NLevels int
	Missing int
	// Top holds the most frequent levels, missing included when shown.
	Top []Level
	// Other aggregates the levels beyond Top; zero Count when none.
	Other Level
}

// CategoricalOptions tunes Categoricals.
type CategoricalOptions struct {
	MaxLevels   int
	ShowMissing bool
}

// Categoricals summarizes every column of t holding at least one string
// value. Levels are ordered by count, then label.
func Categoricals(t *record.Table, opts CategoricalOptions) []Categorical {
	if opts.MaxLevels < 1 {
		opts.MaxLevels = 10
	}
	n := t.Len()
	var out []Categorical
	for _, col := range t.Columns {
		values := t.Column(col)
		if !anyString(values) {
			continue
		}
		c := Categorical{Column: col}
		counts := make(map[string]int)
		for _, v := range values {
			if v.IsNull() {
				c.Missing++
				continue
			}
			counts[v.Text()]++
		}
		c.NLevels = len(counts)

		levels := make([]Level, 0, len(counts)+1)
		for l, k := range counts {
			levels = append(levels, Level{Label: l, Count: k})
		}
		if opts.ShowMissing && c.Missing > 0 {
			levels = append(levels, Level{Label: MissingLabel, Count: c.Missing})
		}
		sort.Slice(levels, func(i, j int) bool {
			if levels[i].Count != levels[j].Count {
				return levels[i].Count > levels[j].Count
			}
			return levels[i].Label < levels[j].Label
		})
		for i := range levels {
			levels[i].Pct = Pct(levels[i].Count, n)
		}
		if len(levels) > opts.MaxLevels {
			c.Other.Label = OtherLabel
			for _, l := range levels[opts.MaxLevels:] {
				c.Other.Count += l.Count
			}
			c.Other.Pct = Pct(c.Other.Count, n)
			levels = levels[:opts.MaxLevels]
		}
		c.Top = levels
		out = append(out, c)
	}
	return out
}

func anyString(values []record.Value) bool {
	for _, v := range values {
		if v.IsString() {
			return true
		}
	}
	return false
}

// FormatCategoricals writes one block per column.
func FormatCategoricals(w io.Writer, cats []Categorical) error {
	var b strings.Builder
	if len(cats) == 0 {
		b.WriteString("no categorical columns\n")
	}
	for _, c := range cats {
		fmt.Fprintf(&b, "[%s]  (levels: %d, missing: %d)\n", c.Column, c.NLevels, c.Missing)
		for _, l := range c.Top {
			fmt.Fprintf(&b, "  %-30s %5d  (%5.1f%%)\n", l.Label, l.Count, l.Pct)
		}
		if c.Other.Count > 0 {
			fmt.Fprintf(&b, "  %-30s %5d  (%5.1f%%)\n", c.Other.Label, c.Other.Count, c.Other.Pct)
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}
