package ddl

import (
	"strings"

	gddl "pisaetl/internal/ddl"
)

// Dialect renders DDL for SQLite: "double-quoted" identifiers and
// CREATE TABLE IF NOT EXISTS.
var Dialect = gddl.Dialect{
	Name:       "sqlite ddl",
	QuoteIdent: QuoteIdent,
	MapType:    MapType,
	CreateGuard: func(_ string, create string) string {
		return strings.Replace(create, "CREATE TABLE ", "CREATE TABLE IF NOT EXISTS ", 1)
	},
}

// QuoteIdent quotes one identifier segment, doubling embedded quotes.
func QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// BuildCreateTableSQL returns a CREATE TABLE IF NOT EXISTS statement for t.
// Dotted names such as "main.events" are quoted per segment.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return Dialect.BuildCreateTableSQL(t)
}

// BuildDropTableSQL returns DROP TABLE IF EXISTS for fqn.
func BuildDropTableSQL(fqn string) (string, error) {
	return Dialect.BuildDropTableSQL(fqn)
}
