package mysql

import (
	"fmt"
	"strings"

	gddl "pisaetl/internal/ddl"
)

// dialect renders MySQL DDL with `backtick` identifiers.
var dialect = gddl.Dialect{
	Name:       "mysql ddl",
	QuoteIdent: quoteIdent,
	MapType:    mapType,
	CreateGuard: func(_ string, create string) string {
		return strings.Replace(create, "CREATE TABLE ", "CREATE TABLE IF NOT EXISTS ", 1)
	},
}

func quoteIdent(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }

// mapType maps inferred kinds to MySQL types. VARCHAR is used up to the
// 255 text bucket; longer text goes to TEXT/LONGTEXT.
func mapType(c gddl.ColumnDef) string {
	switch c.Kind {
	case gddl.KindFloat:
		return "DOUBLE"
	case gddl.KindIdentifier:
		return fmt.Sprintf("VARCHAR(%d)", max(c.Length, 1))
	default:
		switch {
		case c.Length > 0 && c.Length <= 255:
			return fmt.Sprintf("VARCHAR(%d)", c.Length)
		case c.Length > 0:
			return "TEXT"
		default:
			return "LONGTEXT"
		}
	}
}
