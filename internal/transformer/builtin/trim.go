package builtin

import (
	"strings"

	"pisaetl/internal/record"
)

// nbsp covers both the real no-break space and its latin-1 mojibake.
var nbsp = strings.NewReplacer("\u00c2\u00a0", " ", "\u00c2 ", " ", "\u00a0", " ")

// TrimIDs renders the named fields as trimmed strings. Numbers keep their
// shortest form (76000001, not 76000001.0) and blanks become Null.
type TrimIDs struct {
	Fields []string
}

func (t TrimIDs) Apply(in []record.Record) []record.Record {
	for _, r := range in {
		for _, f := range t.Fields {
			v, ok := r[f]
			if !ok || v.IsNull() {
				continue
			}
			s := strings.TrimSpace(nbsp.Replace(v.Text()))
			if s == "" {
				r[f] = record.Null()
				continue
			}
			r[f] = record.String(s)
		}
	}
	return in
}
