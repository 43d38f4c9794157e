package ingest

import (
	"context"
	"fmt"
	"slices"
	"time"

	"pisaetl/internal/datasource/file"
	"pisaetl/internal/ddl"
	"pisaetl/internal/logging"
	"pisaetl/internal/metrics"
	xlsxparser "pisaetl/internal/parser/xlsx"
	"pisaetl/internal/record"
	"pisaetl/internal/schema"
	"pisaetl/internal/transformer"
	"pisaetl/internal/transformer/builtin"
)

// CodebookPatterns locate the codebook workbook.
var CodebookPatterns = []string{"PISA2018_CODEBOOK.xlsx"}

// RequiredOptions configures a Required run.
type RequiredOptions struct {
	Find file.FindOptions
	// CodebookDepth bounds the codebook search; the codebook sits next to
	// the data folders.
	CodebookDepth   int
	IncludeCodebook bool
	Student         schema.Entity
	School          schema.Entity
}

// DefaultRequiredOptions returns the PISA 2018 layout.
func DefaultRequiredOptions() RequiredOptions {
	return RequiredOptions{
		Find:            file.DefaultFindOptions,
		CodebookDepth:   1,
		IncludeCodebook: true,
		Student:         schema.Student(),
		School:          schema.School(),
	}
}

// Required locates the student, school and codebook workbooks under root
// and loads them. Any missing workbook is an error before anything is
// written.
func (r *Runner) Required(ctx context.Context, root string, opts RequiredOptions) ([]Result, error) {
	log := logging.FromContext(ctx)

	start := time.Now()
	paths, err := file.FindRequired(root, opts.Find, opts.Student.FilePatterns, opts.School.FilePatterns)
	var codebook string
	if err == nil && opts.IncludeCodebook {
		cbOpts := opts.Find
		cbOpts.MaxDepth = opts.CodebookDepth
		codebook, err = file.Find(root, CodebookPatterns, cbOpts)
	}
	metrics.RecordStep(r.opts.Job, "locate", err, time.Since(start))
	if err != nil {
		return nil, err
	}
	log.Info("ingest: required files located", "student", paths[0], "school", paths[1], "codebook", codebook)

	var out []Result
	for i, e := range []schema.Entity{opts.Student, opts.School} {
		res, err := r.Entity(ctx, paths[i], e)
		if err != nil {
			metrics.RecordFile(r.opts.Job, metrics.FileFailed)
			return out, err
		}
		metrics.RecordFile(r.opts.Job, metrics.FileLoaded)
		out = append(out, res)
	}

	if codebook != "" {
		res, err := r.Codebook(ctx, codebook)
		out = append(out, res...)
		if err != nil {
			metrics.RecordFile(r.opts.Job, metrics.FileFailed)
			return out, err
		}
		metrics.RecordFile(r.opts.Job, metrics.FileLoaded)
	}
	return out, nil
}

// Entity reads the picked sheet of path, normalizes it to e and loads it
// into e.Target.
func (r *Runner) Entity(ctx context.Context, path string, e schema.Entity) (Result, error) {
	tbl, res, _, err := ReadEntity(ctx, r.opts.Job, r.opts.Cache, path, e)
	if err != nil {
		return res, err
	}
	target, n, err := r.load(ctx, e.Target, tbl, e.Hints())
	res.Target, res.Written = target, n
	return res, err
}

// ReadEntity reads the picked sheet of path and returns it normalized and
// cleaned for e, with the schema check report.
func ReadEntity(ctx context.Context, job string, cache file.Cache, path string, e schema.Entity) (*record.Table, Result, schema.Report, error) {
	tbl, res, rep, err := readNormalized(ctx, job, cache, path, e)
	if err != nil {
		return nil, res, rep, err
	}
	var c Cleaned
	tbl.Records, c = filterRows(tbl.Records, e)
	metrics.RecordRow(job, metrics.RowsDropped, c.Dropped)
	if e.DedupKey != "" {
		metrics.RecordRow(job, metrics.RowsDeduped, c.Deduped)
	}
	logging.FromContext(ctx).Debug("ingest: cleaned", "entity", e.Name, "rows", tbl.Len(),
		"dropped", c.Dropped, "deduped", c.Deduped)
	return tbl, res, rep, nil
}

// Cleaned counts the rows the row filter and dedup of an entity remove.
type Cleaned struct {
	Dropped int64
	Deduped int64
}

// AuditEntity is ReadEntity without the row filter and dedup: every row of
// the sheet is kept, and Cleaned reports what loading would remove.
func AuditEntity(ctx context.Context, job string, cache file.Cache, path string, e schema.Entity) (*record.Table, Result, schema.Report, Cleaned, error) {
	tbl, res, rep, err := readNormalized(ctx, job, cache, path, e)
	if err != nil {
		return nil, res, rep, Cleaned{}, err
	}
	_, c := filterRows(slices.Clone(tbl.Records), e)
	return tbl, res, rep, c, nil
}

// readNormalized reads the picked sheet of path, applies e's aliases, id
// trimming and numeric coercion, and keeps every row.
func readNormalized(ctx context.Context, job string, cache file.Cache, path string, e schema.Entity) (*record.Table, Result, schema.Report, error) {
	log := logging.WithFields(ctx, "entity", e.Name)
	res := Result{Source: path, Target: e.Target}

	local, err := cache.LocalCopy(ctx, path)
	if err != nil {
		return nil, res, schema.Report{}, err
	}
	sheets, err := xlsxparser.Sheets(local)
	if err != nil {
		return nil, res, schema.Report{}, err
	}
	res.Sheet = xlsxparser.PickSheet(sheets)

	start := time.Now()
	sel, err := xlsxparser.ReadMatching(local, res.Sheet, e.Wants)
	metrics.RecordStep(job, "read", err, time.Since(start))
	if err != nil {
		return nil, res, schema.Report{}, fmt.Errorf("%s: read %s: %w", e.Name, path, err)
	}
	tbl := sel.Table
	tbl.Name = e.Target
	res.Read, res.Degraded = tbl.Len(), sel.Degraded
	metrics.RecordRow(job, metrics.RowsRead, int64(tbl.Len()))

	start = time.Now()
	rep, err := schema.Normalize(tbl, e)
	if err == nil {
		coerce := &builtin.CoerceNumeric{Fields: e.Numeric, Patterns: e.NumericPatterns}
		tbl.Records = transformer.Chain{builtin.TrimIDs{Fields: e.Identifiers}, coerce}.Apply(tbl.Records)
		metrics.RecordRow(job, metrics.RowsCoerced, coerce.Nulled)
	}
	metrics.RecordStep(job, "normalize", err, time.Since(start))
	if err != nil {
		return nil, res, rep, err
	}
	log.Info("ingest: schema check", "sheet", res.Sheet, "n_cols", rep.NCols,
		"missing", rep.Missing, "extras", rep.ExtrasCount, "complete", rep.IsComplete)
	return tbl, res, rep, nil
}

// filterRows drops rows missing any of e's required fields, then removes
// duplicate e.DedupKey values keeping the first.
func filterRows(recs []record.Record, e schema.Entity) ([]record.Record, Cleaned) {
	require := &builtin.Require{Fields: e.DropEmpty}
	chain := transformer.Chain{require}
	var dedup *builtin.DeDup
	if e.DedupKey != "" {
		dedup = &builtin.DeDup{Keys: []string{e.DedupKey}, Policy: "keep-first"}
		chain = append(chain, dedup)
	}
	out := chain.Apply(recs)
	c := Cleaned{Dropped: require.Dropped}
	if dedup != nil {
		c.Deduped = dedup.Removed
	}
	return out, c
}

// Codebook loads each codebook sheet into "<file>__<sheet>".
func (r *Runner) Codebook(ctx context.Context, path string) ([]Result, error) {
	local, err := r.stage(ctx, path)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	tables, err := xlsxparser.ReadCodebook(local)
	metrics.RecordStep(r.opts.Job, "read", err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("codebook %s: %w", path, err)
	}

	var out []Result
	for _, tbl := range tables {
		metrics.RecordRow(r.opts.Job, metrics.RowsRead, int64(tbl.Len()))
		name := TargetName(path, tbl.Name, 2)
		target, n, err := r.load(ctx, name, tbl, ddl.Hints{})
		out = append(out, Result{Source: path, Sheet: tbl.Name, Target: target, Read: tbl.Len(), Written: n})
		if err != nil {
			return out, err
		}
	}
	return out, nil
}
