package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"pisaetl/internal/datasource/file"
	"pisaetl/internal/ddl"
	"pisaetl/internal/parser/xlsx/xlsxtest"
	"pisaetl/internal/storage"
)

// fakeRepo records Prepare and CopyFrom calls.
type fakeRepo struct {
	prepared []ddl.TableDef
	batches  map[string][]int
	columns  map[string][]string
	rows     map[string][][]any
	failOn   string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		batches: map[string][]int{},
		columns: map[string][]string{},
		rows:    map[string][][]any{},
	}
}

func (f *fakeRepo) Prepare(_ context.Context, def ddl.TableDef, _ bool) error {
	f.prepared = append(f.prepared, def)
	return nil
}

func (f *fakeRepo) CopyFrom(_ context.Context, target string, columns []string, rows [][]any) (int64, error) {
	if target == f.failOn {
		return 0, errors.New("boom")
	}
	f.batches[target] = append(f.batches[target], len(rows))
	f.columns[target] = columns
	f.rows[target] = append(f.rows[target], rows...)
	return int64(len(rows)), nil
}

func (f *fakeRepo) Close() {}

var _ storage.Repository = (*fakeRepo)(nil)

func newRunner(t *testing.T, repo storage.Repository, kind string, batch int) *Runner {
	t.Helper()
	r, err := New(repo, Options{Job: "test", Kind: kind, BatchSize: batch, DropExisting: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r
}

func TestNewRejectsBatchSize(t *testing.T) {
	t.Parallel()

	_, err := New(newFakeRepo(), Options{BatchSize: 0})
	if !errors.Is(err, storage.ErrInvalidBatchSize) {
		t.Fatalf("New() error = %v, want ErrInvalidBatchSize", err)
	}
}

func TestTargetName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		path   string
		sheet  string
		sheets int
		want   string
	}{
		{name: "single sheet", path: "/x/STU_BRA.xlsx", sheet: "data", sheets: 1, want: "STU_BRA"},
		{name: "many sheets", path: "/x/SCH_BRA.xlsx", sheet: "data", sheets: 3, want: "SCH_BRA__data"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TargetName(tt.path, tt.sheet, tt.sheets); got != tt.want {
				t.Fatalf("TargetName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFileWritesOneCallPerBatch(t *testing.T) {
	t.Parallel()

	path := xlsxtest.WriteIn(t, t.TempDir(), "grades.xlsx", xlsxtest.Sheet{Name: "data", Rows: [][]any{
		{"ID", "Score"},
		{"a", 1.0},
		{"b", 2.0},
		{"c", 3.0},
	}})
	repo := newFakeRepo()
	res, err := newRunner(t, repo, "sqlite", 2).File(context.Background(), path)
	if err != nil {
		t.Fatalf("File() error = %v", err)
	}
	if got := repo.batches["grades"]; !reflect.DeepEqual(got, []int{2, 1}) {
		t.Fatalf("batches = %v, want [2 1]", got)
	}
	if len(res) != 1 || res[0].Written != 3 || res[0].Target != "grades" {
		t.Fatalf("results = %+v", res)
	}
	if len(repo.prepared) != 1 || repo.prepared[0].Columns[1].Kind != ddl.KindFloat {
		t.Fatalf("prepared = %+v", repo.prepared)
	}
}

func TestFileNamesTargetsPerSheet(t *testing.T) {
	t.Parallel()

	path := xlsxtest.WriteIn(t, t.TempDir(), "book.xlsx",
		xlsxtest.Sheet{Name: "a", Rows: [][]any{{"x"}, {1.0}}},
		xlsxtest.Sheet{Name: "b.c", Rows: [][]any{{"y"}, {"v"}}},
	)
	repo := newFakeRepo()
	res, err := newRunner(t, repo, "mongo", 10).File(context.Background(), path)
	if err != nil {
		t.Fatalf("File() error = %v", err)
	}
	var targets []string
	for _, r := range res {
		targets = append(targets, r.Target)
	}
	if want := []string{"book__a", "book__b_c"}; !reflect.DeepEqual(targets, want) {
		t.Fatalf("targets = %v, want %v", targets, want)
	}
}

func TestFileSkipsBlankSheet(t *testing.T) {
	t.Parallel()

	path := xlsxtest.WriteIn(t, t.TempDir(), "book.xlsx",
		xlsxtest.Sheet{Name: "notes"},
		xlsxtest.Sheet{Name: "data", Rows: [][]any{{"x"}, {1.0}}},
	)
	repo := newFakeRepo()
	res, err := newRunner(t, repo, "postgres", 10).File(context.Background(), path)
	if err != nil {
		t.Fatalf("File() error = %v", err)
	}
	if len(res) != 1 || res[0].Target != "book__data" {
		t.Fatalf("results = %+v", res)
	}
	if len(repo.prepared) != 1 {
		t.Fatalf("prepared = %d tables, want 1", len(repo.prepared))
	}
}

func TestFileSanitizesMongoFields(t *testing.T) {
	t.Parallel()

	path := xlsxtest.WriteIn(t, t.TempDir(), "f.xlsx", xlsxtest.Sheet{Name: "s", Rows: [][]any{
		{"a.b", "", "$c"},
		{1.0, 2.0, 3.0},
	}})
	repo := newFakeRepo()
	if _, err := newRunner(t, repo, "mongo", 10).File(context.Background(), path); err != nil {
		t.Fatalf("File() error = %v", err)
	}
	if got, want := repo.columns["f"], []string{"a_b", "COL_2", "S_c"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("columns = %v, want %v", got, want)
	}
	if got := repo.rows["f"][0]; !reflect.DeepEqual(got, []any{1.0, 2.0, 3.0}) {
		t.Fatalf("row = %v", got)
	}
}

func TestListWorkbooks(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	xlsxtest.WriteIn(t, dir, "STU_BRA.xlsx", xlsxtest.Sheet{Name: "data", Rows: [][]any{{"x"}}})
	xlsxtest.WriteIn(t, dir, "SCH_BRA.xlsx", xlsxtest.Sheet{Name: "data", Rows: [][]any{{"x"}}})
	mustWrite(t, filepath.Join(dir, "~$STU_BRA.xlsx"), "lock")
	mustWrite(t, filepath.Join(dir, "notes.txt"), "n")
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	xlsxtest.WriteIn(t, filepath.Join(dir, "sub"), "STU_ARG.xlsx", xlsxtest.Sheet{Name: "data", Rows: [][]any{{"x"}}})

	tests := []struct {
		name string
		opts FolderOptions
		want []string
	}{
		{name: "flat", opts: FolderOptions{}, want: []string{"SCH_BRA.xlsx", "STU_BRA.xlsx"}},
		{name: "recursive", opts: FolderOptions{Recursive: true}, want: []string{"SCH_BRA.xlsx", "STU_BRA.xlsx", "sub/STU_ARG.xlsx"}},
		{name: "prefixes", opts: FolderOptions{Recursive: true, OnlyPrefixes: []string{"STU_"}}, want: []string{"STU_BRA.xlsx", "sub/STU_ARG.xlsx"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ListWorkbooks(dir, tt.opts)
			if err != nil {
				t.Fatalf("ListWorkbooks() error = %v", err)
			}
			rel := make([]string, len(got))
			for i, p := range got {
				r, _ := filepath.Rel(dir, p)
				rel[i] = filepath.ToSlash(r)
			}
			if !reflect.DeepEqual(rel, tt.want) {
				t.Fatalf("ListWorkbooks() = %v, want %v", rel, tt.want)
			}
		})
	}
}

func TestFolderSkipsBrokenWorkbooks(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "a_broken.xlsx"), "not a zip")
	xlsxtest.WriteIn(t, dir, "b_good.xlsx", xlsxtest.Sheet{Name: "data", Rows: [][]any{{"x"}, {1.0}}})

	repo := newFakeRepo()
	res, failures, err := newRunner(t, repo, "sqlite", 100).Folder(context.Background(), dir, FolderOptions{})
	if err != nil {
		t.Fatalf("Folder() error = %v", err)
	}
	if len(failures) != 1 || filepath.Base(failures[0].Path) != "a_broken.xlsx" {
		t.Fatalf("failures = %+v", failures)
	}
	if len(res) != 1 || res[0].Target != "b_good" || res[0].Written != 1 {
		t.Fatalf("results = %+v", res)
	}
}

func TestFolderMissingRoot(t *testing.T) {
	t.Parallel()

	_, _, err := newRunner(t, newFakeRepo(), "sqlite", 1).Folder(context.Background(), filepath.Join(t.TempDir(), "nope"), FolderOptions{})
	if err == nil {
		t.Fatalf("Folder() error = nil, want error")
	}
}

func writeRequiredTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, d := range []string{"STU", "SCH"} {
		if err := os.Mkdir(filepath.Join(root, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	xlsxtest.WriteIn(t, filepath.Join(root, "STU"), "STU_BRA.xlsx",
		xlsxtest.Sheet{Name: "readme", Rows: [][]any{{"about"}}},
		xlsxtest.Sheet{Name: "data", Rows: [][]any{
			{"CNTSTUID", "CNTSCHID", "ESCS", "NOISE", "W_FSTUWT", "PV1READ"},
			{"7600001", "76001", 0.25, "x", 10.0, 412.5},
			{"7600002", "", 0.5, "y", 11.0, 400.0},
			{"7600003", " 76002 ", "n/a", "z", 12.0, 455.0},
		}},
	)
	xlsxtest.WriteIn(t, filepath.Join(root, "SCH"), "SCH_BRA.xlsx",
		xlsxtest.Sheet{Name: "data", Rows: [][]any{
			{"CNTSCHID", "SCMATEDU", "TCSHORT"},
			{"76001", 0.1, 1.0},
			{"76001", 0.9, 2.0},
			{"76002", 0.3, "?"},
		}},
	)
	xlsxtest.WriteIn(t, root, "PISA2018_CODEBOOK.xlsx",
		xlsxtest.Sheet{Name: "PISA 2018 Database", Rows: [][]any{{"STU", "Student questionnaire"}}},
		xlsxtest.Sheet{Name: "STU", Rows: [][]any{{"NAME", "VARLABEL"}, {"CNTSCHID", "School ID"}}},
	)
	return root
}

func TestRequiredLoadsEntitiesAndCodebook(t *testing.T) {
	t.Parallel()

	root := writeRequiredTree(t)
	repo := newFakeRepo()
	res, err := newRunner(t, repo, "mongo", 50000).Required(context.Background(), root, DefaultRequiredOptions())
	if err != nil {
		t.Fatalf("Required() error = %v", err)
	}

	var targets []string
	for _, r := range res {
		targets = append(targets, r.Target)
	}
	want := []string{"STU_BRA", "SCH_BRA", "PISA2018_CODEBOOK__PISA_2018_Database", "PISA2018_CODEBOOK__STU"}
	if !reflect.DeepEqual(targets, want) {
		t.Fatalf("targets = %v, want %v", targets, want)
	}

	if got, want := repo.columns["STU_BRA"], []string{"STIDSTD", "SCHOOLID", "W_FSTUWT", "ESCS", "PV1READ"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("STU columns = %v, want %v", got, want)
	}
	stu := repo.rows["STU_BRA"]
	if len(stu) != 2 {
		t.Fatalf("STU rows = %d, want 2 (empty SCHOOLID dropped)", len(stu))
	}
	if stu[0][0] != "7600001" || stu[1][1] != "76002" || stu[1][3] != nil {
		t.Fatalf("STU rows = %v", stu)
	}
	if res[0].Sheet != "data" || res[0].Read != 3 || res[0].Written != 2 {
		t.Fatalf("STU result = %+v", res[0])
	}

	sch := repo.rows["SCH_BRA"]
	if len(sch) != 2 {
		t.Fatalf("SCH rows = %d, want 2 (dedup by SCHOOLID)", len(sch))
	}
	if sch[0][1] != 0.1 || sch[1][2] != nil {
		t.Fatalf("SCH rows = %v", sch)
	}
}

func TestAuditEntityKeepsFilteredRows(t *testing.T) {
	t.Parallel()

	root := writeRequiredTree(t)
	opts := DefaultRequiredOptions()
	ctx := context.Background()

	tests := []struct {
		name     string
		path     string
		entity   string
		wantAll  int
		wantKept int
		want     Cleaned
	}{
		{name: "student null school", path: filepath.Join(root, "STU", "STU_BRA.xlsx"), entity: "student", wantAll: 3, wantKept: 2, want: Cleaned{Dropped: 1}},
		{name: "school duplicate id", path: filepath.Join(root, "SCH", "SCH_BRA.xlsx"), entity: "school", wantAll: 3, wantKept: 2, want: Cleaned{Deduped: 1}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := opts.Student
			if tt.entity == "school" {
				e = opts.School
			}
			all, _, _, cleaned, err := AuditEntity(ctx, "test", file.Cache{}, tt.path, e)
			if err != nil {
				t.Fatalf("AuditEntity() error = %v", err)
			}
			if all.Len() != tt.wantAll || cleaned != tt.want {
				t.Fatalf("AuditEntity() rows = %d, cleaned = %+v; want %d, %+v", all.Len(), cleaned, tt.wantAll, tt.want)
			}
			kept, _, _, err := ReadEntity(ctx, "test", file.Cache{}, tt.path, e)
			if err != nil {
				t.Fatalf("ReadEntity() error = %v", err)
			}
			if kept.Len() != tt.wantKept {
				t.Fatalf("ReadEntity() rows = %d, want %d", kept.Len(), tt.wantKept)
			}
		})
	}
}

func TestRequiredMissingWorkbookWritesNothing(t *testing.T) {
	t.Parallel()

	root := writeRequiredTree(t)
	if err := os.Remove(filepath.Join(root, "SCH", "SCH_BRA.xlsx")); err != nil {
		t.Fatal(err)
	}
	repo := newFakeRepo()
	_, err := newRunner(t, repo, "mssql", 10).Required(context.Background(), root, DefaultRequiredOptions())
	if !errors.Is(err, file.ErrNotFound) {
		t.Fatalf("Required() error = %v, want ErrNotFound", err)
	}
	if len(repo.prepared) != 0 {
		t.Fatalf("prepared %d targets before failing", len(repo.prepared))
	}
}

func TestRequiredSQLInfersDDL(t *testing.T) {
	t.Parallel()

	root := writeRequiredTree(t)
	opts := DefaultRequiredOptions()
	opts.IncludeCodebook = false
	repo := newFakeRepo()
	if _, err := newRunner(t, repo, "mssql", 10).Required(context.Background(), root, opts); err != nil {
		t.Fatalf("Required() error = %v", err)
	}
	if len(repo.prepared) != 2 {
		t.Fatalf("prepared = %d, want 2", len(repo.prepared))
	}
	stu := repo.prepared[0]
	if stu.FQN != "STU_BRA" || stu.Columns[0].Kind != ddl.KindIdentifier || stu.Columns[3].Kind != ddl.KindFloat {
		t.Fatalf("STU def = %+v", stu)
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
