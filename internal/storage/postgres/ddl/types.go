// Package ddl contains Postgres-specific helpers for generating DDL.
package ddl

import (
	"fmt"

	gddl "pisaetl/internal/ddl"
)

// MapType maps an inferred column kind to a Postgres type.
//
//	identifier(n) -> VARCHAR(n)
//	float         -> DOUBLE PRECISION
//	text          -> TEXT
func MapType(c gddl.ColumnDef) string {
	switch c.Kind {
	case gddl.KindFloat:
		return "DOUBLE PRECISION"
	case gddl.KindIdentifier:
		if c.Length > 0 {
			return fmt.Sprintf("VARCHAR(%d)", c.Length)
		}
		return "TEXT"
	default:
		return "TEXT"
	}
}
