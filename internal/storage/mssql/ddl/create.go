package ddl

import (
	"fmt"
	"strings"

	gddl "pisaetl/internal/ddl"
)

// Dialect renders DDL for SQL Server:
//   - identifiers are [bracket] quoted, with ] escaped as ]]
//   - CREATE TABLE is wrapped in an IF OBJECT_ID(...) IS NULL guard since
//     T-SQL has no CREATE TABLE IF NOT EXISTS
//   - drops use the same OBJECT_ID probe
var Dialect = gddl.Dialect{
	Name:       "mssql ddl",
	QuoteIdent: QuoteIdent,
	MapType:    MapType,
	CreateGuard: func(quoted, create string) string {
		return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n  %s\nEND;",
			escapeLiteral(quoted), strings.ReplaceAll(create, "\n", "\n  "))
	},
	DropIfExists: func(quoted string) string {
		return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NOT NULL DROP TABLE %s;", escapeLiteral(quoted), quoted)
	},
}

// QuoteIdent quotes a single identifier segment using bracket syntax.
//
//	name      -> [name]
//	weird]id  -> [weird]]id]
func QuoteIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}

// QuoteFQN quotes a possibly schema-qualified table name.
//
//	"dbo.Users" -> [dbo].[Users]
func QuoteFQN(fqn string) string { return Dialect.QuoteFQN(fqn) }

// BuildCreateTableSQL returns a guarded CREATE TABLE script for t.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return Dialect.BuildCreateTableSQL(t)
}

// BuildDropTableSQL returns a guarded DROP TABLE statement for fqn.
func BuildDropTableSQL(fqn string) (string, error) {
	return Dialect.BuildDropTableSQL(fqn)
}

// BuildEnsureDatabaseSQL returns a statement creating database name when it
// does not exist yet.
func BuildEnsureDatabaseSQL(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("mssql ddl: database name must not be empty")
	}
	return fmt.Sprintf("IF DB_ID(N'%s') IS NULL CREATE DATABASE %s;", escapeLiteral(name), QuoteIdent(name)), nil
}

// escapeLiteral doubles single quotes for use inside N'...'.
func escapeLiteral(s string) string { return strings.ReplaceAll(s, "'", "''") }
