// Package ddl contains MSSQL-specific helpers for generating DDL.
//
// It maps the inferred logical column kinds to SQL Server types:
//
//	identifier(n) -> NVARCHAR(n)
//	float         -> FLOAT
//	text(n)       -> NVARCHAR(n), NVARCHAR(MAX) when n is 0
package ddl

import (
	"fmt"

	gddl "pisaetl/internal/ddl"
)

// MapType returns the SQL Server column type for c.
func MapType(c gddl.ColumnDef) string {
	switch c.Kind {
	case gddl.KindFloat:
		return "FLOAT"
	case gddl.KindIdentifier, gddl.KindText:
		if c.Length <= 0 {
			return "NVARCHAR(MAX)"
		}
		return fmt.Sprintf("NVARCHAR(%d)", c.Length)
	default:
		return "NVARCHAR(MAX)"
	}
}
