package ddl

// Kind is the logical column category inferred from the data. Backends map
// it to a concrete SQL type.
type Kind string

const (
	// KindIdentifier is a fixed-width text key such as SCHOOLID.
	KindIdentifier Kind = "identifier"
	// KindFloat is a floating-point measure.
	KindFloat Kind = "float"
	// KindText is generic text.
	KindText Kind = "text"
)

// ColumnDef describes a single column of a table definition.
//
// Fields:
//   - Name: logical column name (unquoted; quoting happens at render time)
//   - Kind, Length: inferred logical type; Length 0 on text means unbounded
//   - SQLType: concrete type; when empty the dialect derives it from Kind
//   - Nullable: whether NULL is allowed
type ColumnDef struct {
	Name     string
	Kind     Kind
	Length   int
	SQLType  string
	Nullable bool
}

// TableDef holds the table name (FQN, dotted "schema.table" or bare) and an
// ordered list of columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// ColumnNames returns the column names in definition order.
func (t TableDef) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}
