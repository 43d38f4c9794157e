package ddl

import (
	"strings"
	"testing"
)

// testDialect quotes with double quotes and maps kinds to neutral types.
var testDialect = Dialect{
	Name:       "test ddl",
	QuoteIdent: func(s string) string { return `"` + strings.ReplaceAll(s, `"`, `""`) + `"` },
	MapType: func(c ColumnDef) string {
		switch c.Kind {
		case KindFloat:
			return "REAL"
		case KindIdentifier, KindText:
			return "TEXT"
		}
		return ""
	},
}

// TestBuildCreateTableSQL verifies rendering and validation errors.
func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		def         TableDef
		wantSQL     string
		errContains string
	}{
		{
			name:        "empty FQN returns error",
			def:         TableDef{Columns: []ColumnDef{{Name: "id", SQLType: "INT"}}},
			errContains: "table FQN must not be empty",
		},
		{
			name:        "no columns returns error",
			def:         TableDef{FQN: "t"},
			errContains: "at least one column is required",
		},
		{
			name:        "column with empty name returns error",
			def:         TableDef{FQN: "t", Columns: []ColumnDef{{SQLType: "INT"}}},
			errContains: "column with empty name",
		},
		{
			name:        "unmappable kind returns error",
			def:         TableDef{FQN: "t", Columns: []ColumnDef{{Name: "x", Kind: "weird"}}},
			errContains: "missing SQLType",
		},
		{
			name: "explicit type wins over kind",
			def: TableDef{FQN: "t", Columns: []ColumnDef{
				{Name: "id", Kind: KindText, SQLType: "INT"},
			}},
			wantSQL: "CREATE TABLE \"t\" (\n  \"id\" INT NOT NULL\n);",
		},
		{
			name: "kinds mapped and schema quoted",
			def: TableDef{FQN: "main.stu", Columns: []ColumnDef{
				{Name: "SCHOOLID", Kind: KindIdentifier, Length: 16, Nullable: true},
				{Name: "ESCS", Kind: KindFloat, Nullable: true},
			}},
			wantSQL: "CREATE TABLE \"main\".\"stu\" (\n  \"SCHOOLID\" TEXT,\n  \"ESCS\" REAL\n);",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := testDialect.BuildCreateTableSQL(tt.def)
			if tt.errContains != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errContains) {
					t.Fatalf("BuildCreateTableSQL() error = %v, want containing %q", err, tt.errContains)
				}
				if !strings.HasPrefix(err.Error(), "test ddl: ") {
					t.Fatalf("error %q not prefixed with dialect name", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildCreateTableSQL() error = %v", err)
			}
			if got != tt.wantSQL {
				t.Fatalf("BuildCreateTableSQL() =\n%s\nwant\n%s", got, tt.wantSQL)
			}
		})
	}
}

func TestCreateGuardWraps(t *testing.T) {
	t.Parallel()

	d := testDialect
	d.CreateGuard = func(quoted, create string) string { return "-- " + quoted + "\n" + create }

	got, err := d.BuildCreateTableSQL(TableDef{FQN: "t", Columns: []ColumnDef{{Name: "a", SQLType: "INT", Nullable: true}}})
	if err != nil {
		t.Fatalf("BuildCreateTableSQL() error = %v", err)
	}
	if !strings.HasPrefix(got, "-- \"t\"\nCREATE TABLE") {
		t.Fatalf("guard not applied: %q", got)
	}
}

func TestBuildDropTableSQL(t *testing.T) {
	t.Parallel()

	got, err := testDialect.BuildDropTableSQL("s.t")
	if err != nil {
		t.Fatalf("BuildDropTableSQL() error = %v", err)
	}
	if want := `DROP TABLE IF EXISTS "s"."t";`; got != want {
		t.Fatalf("BuildDropTableSQL() = %q, want %q", got, want)
	}
	if _, err := testDialect.BuildDropTableSQL("  "); err == nil {
		t.Fatalf("BuildDropTableSQL(blank) want error")
	}
}

func TestQuoteFQNSkipsEmptySegments(t *testing.T) {
	t.Parallel()

	if got, want := testDialect.QuoteFQN("a..b"), `"a"."b"`; got != want {
		t.Fatalf("QuoteFQN() = %q, want %q", got, want)
	}
}
