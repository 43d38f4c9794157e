// Package ddl defines a small, backend-agnostic model for SQL DDL, the
// per-column type inference used when a target table is created, and a
// Dialect that renders the model for one SQL backend.
//
// Backend packages (internal/storage/<kind>/ddl) declare a Dialect value with
// their identifier quoting, type mapping and existence guards; everything
// else is shared here.
package ddl

import (
	"fmt"
	"strings"
)

// Dialect captures the per-backend rendering rules.
type Dialect struct {
	// Name prefixes error messages, e.g. "mssql ddl".
	Name string

	// QuoteIdent quotes one identifier segment.
	QuoteIdent func(string) string

	// MapType returns the SQL type for a column whose SQLType is empty.
	MapType func(ColumnDef) string

	// CreateGuard wraps the CREATE TABLE statement. quoted is the quoted
	// FQN. Nil means the statement is emitted as-is.
	CreateGuard func(quoted, create string) string

	// DropIfExists renders a statement that drops the table when present.
	DropIfExists func(quoted string) string
}

// QuoteFQN quotes each non-empty dotted segment of fqn.
func (d Dialect) QuoteFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, d.QuoteIdent(p))
	}
	return strings.Join(out, ".")
}

// BuildCreateTableSQL renders a CREATE TABLE statement for t.
//
// Each column is rendered as
//
//	<quoted name> <type> [NOT NULL]
//
// where the type is c.SQLType or, when empty, d.MapType(c).
func (d Dialect) BuildCreateTableSQL(t TableDef) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s: table FQN must not be empty", d.Name)
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s: at least one column is required", d.Name)
	}

	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("%s: column with empty name in table %s", d.Name, fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" && d.MapType != nil {
			typ = d.MapType(c)
		}
		if typ == "" {
			return "", fmt.Errorf("%s: column %s missing SQLType", d.Name, name)
		}

		var sb strings.Builder
		sb.WriteString(d.QuoteIdent(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		cols = append(cols, sb.String())
	}

	quoted := d.QuoteFQN(fqn)
	stmt := fmt.Sprintf("CREATE TABLE %s (\n  %s\n);", quoted, strings.Join(cols, ",\n  "))
	if d.CreateGuard != nil {
		stmt = d.CreateGuard(quoted, stmt)
	}
	return stmt, nil
}

// BuildDropTableSQL renders the dialect's drop-if-exists statement.
func (d Dialect) BuildDropTableSQL(fqn string) (string, error) {
	fqn = strings.TrimSpace(fqn)
	if fqn == "" {
		return "", fmt.Errorf("%s: table FQN must not be empty", d.Name)
	}
	quoted := d.QuoteFQN(fqn)
	if d.DropIfExists == nil {
		return "DROP TABLE IF EXISTS " + quoted + ";", nil
	}
	return d.DropIfExists(quoted), nil
}

// QuoteColumns maps column names to their quoted forms, preserving order.
func (d Dialect) QuoteColumns(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = d.QuoteIdent(c)
	}
	return out
}
