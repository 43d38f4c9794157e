package ddl

import (
	"strings"

	gddl "pisaetl/internal/ddl"
)

// Dialect renders Postgres DDL: double-quoted identifiers with embedded
// quotes doubled, CREATE TABLE IF NOT EXISTS, DROP TABLE IF EXISTS.
var Dialect = gddl.Dialect{
	Name:       "postgres ddl",
	QuoteIdent: QuoteIdent,
	MapType:    MapType,
	CreateGuard: func(_ string, create string) string {
		return strings.Replace(create, "CREATE TABLE ", "CREATE TABLE IF NOT EXISTS ", 1)
	},
}

// QuoteIdent safely quotes a single identifier segment for Postgres.
func QuoteIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// BuildCreateTableSQL builds a deterministic CREATE TABLE IF NOT EXISTS
// statement for t.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return Dialect.BuildCreateTableSQL(t)
}

// BuildDropTableSQL returns DROP TABLE IF EXISTS for fqn.
func BuildDropTableSQL(fqn string) (string, error) {
	return Dialect.BuildDropTableSQL(fqn)
}
