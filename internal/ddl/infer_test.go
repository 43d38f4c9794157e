package ddl

import (
	"regexp"
	"strings"
	"testing"

	"pisaetl/internal/record"
)

func TestInfer(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 300)
	tbl := &record.Table{
		Columns: []string{"SCHOOLID", "PV1READ", "ESCS", "LANGN", "NOTE", "LONG", "EMPTY"},
		Records: []record.Record{
			{
				"SCHOOLID": record.String("BRA000001"),
				"PV1READ":  record.String("n/a"),
				"ESCS":     record.Float(0.1),
				"LANGN":    record.Float(1),
				"NOTE":     record.String("ok"),
				"LONG":     record.String(long),
			},
			{
				"SCHOOLID": record.String("BRA2"),
				"ESCS":     record.Null(),
				"LANGN":    record.Float(2),
			},
		},
	}
	h := Hints{
		Identifiers:     []string{"SCHOOLID"},
		Measures:        []string{"ESCS"},
		MeasurePatterns: []*regexp.Regexp{regexp.MustCompile(`^PV\d+READ$`)},
	}

	def := Infer(tbl, "dbo.STU", h)
	if def.FQN != "dbo.STU" {
		t.Fatalf("FQN = %q", def.FQN)
	}

	want := []ColumnDef{
		{Name: "SCHOOLID", Kind: KindIdentifier, Length: 16, Nullable: true},
		{Name: "PV1READ", Kind: KindFloat, Nullable: true},
		{Name: "ESCS", Kind: KindFloat, Nullable: true},
		{Name: "LANGN", Kind: KindFloat, Nullable: true},
		{Name: "NOTE", Kind: KindText, Length: 255, Nullable: true},
		{Name: "LONG", Kind: KindText, Length: 4000, Nullable: true},
		{Name: "EMPTY", Kind: KindText, Length: 255, Nullable: true},
	}
	if len(def.Columns) != len(want) {
		t.Fatalf("len(Columns) = %d, want %d", len(def.Columns), len(want))
	}
	for i := range want {
		if def.Columns[i] != want[i] {
			t.Errorf("Columns[%d] = %+v, want %+v", i, def.Columns[i], want[i])
		}
	}
}

func TestIdentifierLen(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []record.Value
		want int
	}{
		{name: "empty column", in: []record.Value{record.Null()}, want: 64},
		{name: "short clamps up", in: []record.Value{record.String("ab")}, want: 16},
		{name: "mid keeps length", in: []record.Value{record.String(strings.Repeat("a", 40))}, want: 40},
		{name: "long clamps down", in: []record.Value{record.String(strings.Repeat("a", 900))}, want: 450},
		{name: "counts runes", in: []record.Value{record.String(strings.Repeat("ç", 20))}, want: 20},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := identifierLen(tt.in); got != tt.want {
				t.Fatalf("identifierLen() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTextLen(t *testing.T) {
	t.Parallel()

	for in, want := range map[int]int{0: 255, 255: 255, 256: 4000, 4000: 4000, 4001: 0} {
		if got := textLen(in); got != want {
			t.Errorf("textLen(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestTableDefRows(t *testing.T) {
	t.Parallel()

	def := TableDef{FQN: "t", Columns: []ColumnDef{
		{Name: "ID", Kind: KindIdentifier, Length: 16},
		{Name: "PV1READ", Kind: KindFloat},
		{Name: "LABEL", Kind: KindText, Length: 255},
	}}
	tbl := &record.Table{
		Columns: []string{"ID", "PV1READ", "LABEL"},
		Records: []record.Record{
			{"ID": record.String("7"), "PV1READ": record.Float(512.5), "LABEL": record.Float(3)},
			{"ID": record.Null(), "PV1READ": record.String("n/a")},
		},
	}

	rows := def.Rows(tbl)
	if len(rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(rows))
	}
	if rows[0][0] != "7" || rows[0][1] != 512.5 || rows[0][2] != "3" {
		t.Fatalf("row 0 = %#v", rows[0])
	}
	for j, v := range rows[1] {
		if v != nil {
			t.Fatalf("row 1 col %d = %#v, want nil", j, v)
		}
	}
}
