// Package ddl contains SQLite-specific helpers for generating DDL.
//
// SQLite types are affinities, so the mapping is coarse:
//   - float             -> REAL
//   - identifier, text  -> TEXT (lengths are not enforced)
package ddl

import gddl "pisaetl/internal/ddl"

// MapType returns the SQLite column affinity for c.
func MapType(c gddl.ColumnDef) string {
	if c.Kind == gddl.KindFloat {
		return "REAL"
	}
	return "TEXT"
}
