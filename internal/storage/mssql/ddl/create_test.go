package ddl

import (
	"strings"
	"testing"

	gddl "pisaetl/internal/ddl"
)

func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	def := gddl.TableDef{
		FQN: "dbo.STU_BRA",
		Columns: []gddl.ColumnDef{
			{Name: "SCHOOLID", Kind: gddl.KindIdentifier, Length: 16, Nullable: true},
			{Name: "ESCS", Kind: gddl.KindFloat, Nullable: true},
		},
	}

	got, err := BuildCreateTableSQL(def)
	if err != nil {
		t.Fatalf("BuildCreateTableSQL() error = %v", err)
	}
	want := "IF OBJECT_ID(N'[dbo].[STU_BRA]', N'U') IS NULL\n" +
		"BEGIN\n" +
		"  CREATE TABLE [dbo].[STU_BRA] (\n" +
		"    [SCHOOLID] NVARCHAR(16),\n" +
		"    [ESCS] FLOAT\n" +
		"  );\n" +
		"END;"
	if got != want {
		t.Fatalf("BuildCreateTableSQL() =\n%s\nwant\n%s", got, want)
	}
}

func TestBuildCreateTableSQL_Errors(t *testing.T) {
	t.Parallel()

	_, err := BuildCreateTableSQL(gddl.TableDef{FQN: "dbo.t"})
	if err == nil || !strings.Contains(err.Error(), "mssql ddl: at least one column is required") {
		t.Fatalf("error = %v, want column requirement", err)
	}
}

func TestBuildDropTableSQL(t *testing.T) {
	t.Parallel()

	got, err := BuildDropTableSQL("dbo.SCH_BRA")
	if err != nil {
		t.Fatalf("BuildDropTableSQL() error = %v", err)
	}
	want := "IF OBJECT_ID(N'[dbo].[SCH_BRA]', N'U') IS NOT NULL DROP TABLE [dbo].[SCH_BRA];"
	if got != want {
		t.Fatalf("BuildDropTableSQL() = %q, want %q", got, want)
	}
}

func TestBuildEnsureDatabaseSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain", in: "PISA", want: "IF DB_ID(N'PISA') IS NULL CREATE DATABASE [PISA];"},
		{name: "quote in name", in: "o'brien", want: "IF DB_ID(N'o''brien') IS NULL CREATE DATABASE [o'brien];"},
		{name: "bracket in name", in: "a]b", want: "IF DB_ID(N'a]b') IS NULL CREATE DATABASE [a]]b];"},
		{name: "blank", in: " ", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := BuildEnsureDatabaseSQL(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("BuildEnsureDatabaseSQL(%q) want error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildEnsureDatabaseSQL(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("BuildEnsureDatabaseSQL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestQuoteFQN(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Users":     "[Users]",
		"dbo.Users": "[dbo].[Users]",
		"a.b.c":     "[a].[b].[c]",
		"dbo.u]s":   "[dbo].[u]]s]",
	}
	for in, want := range tests {
		if got := QuoteFQN(in); got != want {
			t.Errorf("QuoteFQN(%q) = %q, want %q", in, got, want)
		}
	}
}
