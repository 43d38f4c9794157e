package ddl

import (
	"testing"

	gddl "pisaetl/internal/ddl"
)

func TestMapType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		col  gddl.ColumnDef
		want string
	}{
		{name: "float", col: gddl.ColumnDef{Kind: gddl.KindFloat}, want: "DOUBLE PRECISION"},
		{name: "identifier", col: gddl.ColumnDef{Kind: gddl.KindIdentifier, Length: 24}, want: "VARCHAR(24)"},
		{name: "identifier without length", col: gddl.ColumnDef{Kind: gddl.KindIdentifier}, want: "TEXT"},
		{name: "text", col: gddl.ColumnDef{Kind: gddl.KindText, Length: 4000}, want: "TEXT"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := MapType(tt.col); got != tt.want {
				t.Fatalf("MapType(%+v) = %q, want %q", tt.col, got, tt.want)
			}
		})
	}
}
