package xlsx

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"pisaetl/internal/parser/xlsx/xlsxtest"
)

func TestReadCodebook(t *testing.T) {
	t.Parallel()

	path := xlsxtest.WriteIn(t, t.TempDir(), "PISA2018_CODEBOOK.xlsx",
		xlsxtest.Sheet{Name: "PISA 2018 Database", Rows: [][]any{
			{"Student questionnaire", nil, "STU"},
			{nil, nil, nil},
			{"School questionnaire", nil, "SCH"},
		}},
		xlsxtest.Sheet{Name: "STU", Rows: [][]any{
			{"PISA 2018 codebook"},
			{nil},
			{"Extra", "LABEL", "VAL", "varlabel", "NAME", "Blank"},
			{"e1", nil, nil, "Student ID", "CNTSTUID", nil},
			{nil, "Female", 1, nil, nil, nil},
			{nil, nil, nil, nil, nil, nil},
		}},
		xlsxtest.Sheet{Name: "Notes", Rows: [][]any{
			{nil},
			{"Topic", ""},
			{"weights", "see annex"},
		}},
	)

	tables, err := ReadCodebook(path)
	if err != nil {
		t.Fatalf("ReadCodebook() error = %v", err)
	}
	if len(tables) != 3 {
		t.Fatalf("tables = %d, want 3", len(tables))
	}

	idx := tables[0]
	if idx.Name != "PISA 2018 Database" {
		t.Fatalf("tables[0].Name = %q", idx.Name)
	}
	if want := []string{"REF", "DESCRIPTION"}; !reflect.DeepEqual(idx.Columns, want) {
		t.Fatalf("index columns = %v, want %v", idx.Columns, want)
	}
	if idx.Len() != 2 || idx.Records[1].Get("DESCRIPTION").Str() != "SCH" {
		t.Fatalf("index records = %+v", idx.Records)
	}

	stu := tables[1]
	wantCols := []string{"NAME", "varlabel", "VAL", "LABEL", "Extra"}
	if !reflect.DeepEqual(stu.Columns, wantCols) {
		t.Fatalf("STU columns = %v, want %v", stu.Columns, wantCols)
	}
	if stu.Len() != 2 {
		t.Fatalf("STU rows = %d, want 2", stu.Len())
	}
	if v := stu.Records[1].Get("VAL"); !v.IsFloat() || v.Num() != 1 {
		t.Fatalf("STU VAL = %#v, want 1", v)
	}

	notes := tables[2]
	if want := []string{"Topic", "COL_2"}; !reflect.DeepEqual(notes.Columns, want) {
		t.Fatalf("Notes columns = %v, want %v", notes.Columns, want)
	}
}

func TestCodebookColumnOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "canonical first",
			in:   []string{"PERCENT", "x", "VARLABEL", "NAME", "TYPE"},
			want: []string{"NAME", "VARLABEL", "TYPE", "PERCENT", "x"},
		},
		{
			name: "no VARLABEL keeps order",
			in:   []string{"TYPE", "NAME"},
			want: []string{"TYPE", "NAME"},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := codebookColumnOrder(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("codebookColumnOrder(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestReadCodebookErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, err := ReadCodebook(filepath.Join(dir, "missing.xlsx")); err == nil {
		t.Fatalf("ReadCodebook(missing) error = nil")
	}
	bogus := filepath.Join(dir, "bogus.xlsx")
	if err := os.WriteFile(bogus, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadCodebook(bogus); err == nil || errors.Is(err, ErrNoSheets) {
		t.Fatalf("ReadCodebook(bogus) error = %v, want open error", err)
	}
}
