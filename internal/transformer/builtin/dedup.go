// DeDup collapses records sharing a key. The winner per key follows Policy:
//
//   - "keep-first"   : earliest occurrence (default)
//   - "keep-last"    : latest occurrence
//   - "most-complete": most non-null fields; ties go to the later record
//
// Keys are the configured fields rendered as text and hashed with xxh3.
// Records missing a key field pass through after the winners.

package builtin

import (
	"sort"
	"strings"

	"github.com/zeebo/xxh3"

	"pisaetl/internal/record"
)

// DeDup implements a configurable, in-memory de-duplication policy.
type DeDup struct {
	Keys   []string
	Policy string

	// Removed counts collapsed duplicates across calls.
	Removed int64
}

func (d *DeDup) Apply(in []record.Record) []record.Record {
	if len(in) == 0 || len(d.Keys) == 0 {
		return in
	}
	policy := strings.ToLower(strings.TrimSpace(d.Policy))
	if policy == "" {
		policy = "keep-first"
	}

	type slot struct {
		rec   record.Record
		index int
		score int
	}
	winners := make(map[uint64]slot, len(in))
	var passthrough []record.Record

	for i, r := range in {
		key, ok := d.keyOf(r)
		if !ok {
			passthrough = append(passthrough, r)
			continue
		}
		prev, exists := winners[key]
		switch policy {
		case "keep-last":
			winners[key] = slot{rec: r, index: i}
		case "most-complete":
			s := slot{rec: r, index: i, score: completeness(r)}
			if !exists || s.score >= prev.score {
				winners[key] = s
			}
		default:
			if !exists {
				winners[key] = slot{rec: r, index: i}
			}
		}
	}

	slots := make([]slot, 0, len(winners))
	for _, s := range winners {
		slots = append(slots, s)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].index < slots[j].index })

	out := make([]record.Record, 0, len(slots)+len(passthrough))
	for _, s := range slots {
		out = append(out, s.rec)
	}
	out = append(out, passthrough...)
	d.Removed += int64(len(in) - len(out))
	return out
}

func (d *DeDup) keyOf(r record.Record) (uint64, bool) {
	var b strings.Builder
	for i, k := range d.Keys {
		v, ok := r[k]
		if !ok || v.IsNull() {
			return 0, false
		}
		if i > 0 {
			b.WriteByte('\x1f')
		}
		b.WriteString(v.Text())
	}
	return xxh3.HashString(b.String()), true
}

func completeness(r record.Record) int {
	n := 0
	for _, v := range r {
		if !v.IsNull() && v.Text() != "" {
			n++
		}
	}
	return n
}
