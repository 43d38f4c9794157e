package schema

import (
	"slices"

	"pisaetl/internal/record"
)

// Alias renames a synonym column to its canonical name.
type Alias struct {
	From string
	To   string
}

// Aliases is applied in order.
type Aliases []Alias

// ApplyAliases returns columns with each alias applied when From is present
// and To is absent. Applying the result again changes nothing.
func ApplyAliases(columns []string, aliases Aliases) []string {
	out := append([]string(nil), columns...)
	pos := make(map[string]int, len(out))
	for i, c := range out {
		pos[c] = i
	}
	for _, a := range aliases {
		i, hasFrom := pos[a.From]
		if _, hasTo := pos[a.To]; !hasFrom || hasTo {
			continue
		}
		out[i] = a.To
		delete(pos, a.From)
		pos[a.To] = i
	}
	return out
}

// RenameTable applies aliases to t's columns and rebuilds each record from
// the old-to-new mapping, so chained aliases never overwrite a value.
func RenameTable(t *record.Table, aliases Aliases) {
	renamed := ApplyAliases(t.Columns, aliases)
	if slices.Equal(renamed, t.Columns) {
		return
	}
	for i, rec := range t.Records {
		out := make(record.Record, len(rec))
		for j, from := range t.Columns {
			if v, ok := rec[from]; ok {
				out[renamed[j]] = v
			}
		}
		t.Records[i] = out
	}
	t.Columns = renamed
}
