// Package ingest loads PISA workbooks into a storage.Repository.
//
// Every target is written the same way: prepare (drop/create), then one
// bulk write per batch through storage.LoadBatches. Sheets are read whole
// into memory; a run is sequential and uses one connection.
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"pisaetl/internal/datasource/file"
	"pisaetl/internal/ddl"
	"pisaetl/internal/logging"
	"pisaetl/internal/metrics"
	"pisaetl/internal/record"
	"pisaetl/internal/sanitize"
	"pisaetl/internal/storage"
)

// Options configures a Runner.
type Options struct {
	// Job labels logs and metrics.
	Job string
	// Kind is the storage kind the repository was opened with; "mongo"
	// switches naming rules and skips DDL inference.
	Kind         string
	BatchSize    int
	DropExisting bool
	Cache        file.Cache
}

// Result describes one loaded target.
type Result struct {
	Source   string
	Sheet    string
	Target   string
	Read     int
	Written  int64
	Degraded bool
}

// Failure is a workbook that could not be loaded.
type Failure struct {
	Path string
	Err  error
}

func (f Failure) Error() string { return f.Path + ": " + f.Err.Error() }

// Runner owns the naming state of one run. It is not safe for concurrent use.
type Runner struct {
	repo    storage.Repository
	opts    Options
	targets *sanitize.Sanitizer
}

// New returns a Runner writing to repo.
func New(repo storage.Repository, opts Options) (*Runner, error) {
	if opts.BatchSize < 1 {
		return nil, fmt.Errorf("batch size %d: %w", opts.BatchSize, storage.ErrInvalidBatchSize)
	}
	if opts.Job == "" {
		opts.Job = metrics.DefaultJobLabel
	}
	rules := sanitize.SQLTable
	if opts.mongo() {
		rules = sanitize.MongoCollection
	}
	return &Runner{repo: repo, opts: opts, targets: sanitize.New(rules)}, nil
}

func (o Options) mongo() bool { return o.Kind == "mongo" }

// TargetName is "<file>" for single-sheet workbooks and "<file>__<sheet>"
// otherwise, before sanitizing.
func TargetName(path, sheet string, sheets int) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if sheets <= 1 {
		return base
	}
	return base + "__" + sheet
}

// load writes tbl into a target derived from name and returns the written
// count. Column names are sanitized for the sink; hints drive SQL DDL.
func (r *Runner) load(ctx context.Context, name string, tbl *record.Table, hints ddl.Hints) (string, int64, error) {
	log := logging.FromContext(ctx)
	target := r.targets.Name(name)

	colRules := sanitize.SQLColumn
	if r.opts.mongo() {
		colRules = sanitize.MongoField
	}
	renameColumns(tbl, sanitize.New(colRules).Names(tbl.Columns))

	var (
		def  ddl.TableDef
		rows [][]any
	)
	if r.opts.mongo() {
		def = ddl.TableDef{FQN: target}
		rows = tbl.Rows()
	} else {
		def = ddl.Infer(tbl, target, hints)
		rows = def.Rows(tbl)
	}

	start := time.Now()
	if err := r.repo.Prepare(ctx, def, r.opts.DropExisting); err != nil {
		metrics.RecordStep(r.opts.Job, "prepare", err, time.Since(start))
		return target, 0, fmt.Errorf("prepare %s: %w", target, err)
	}
	metrics.RecordStep(r.opts.Job, "prepare", nil, time.Since(start))

	start = time.Now()
	n, err := storage.LoadBatches(ctx, r.opts.Job, tbl.Columns, rows, r.opts.BatchSize,
		func(ctx context.Context, cols []string, batch [][]any) (int64, error) {
			return r.repo.CopyFrom(ctx, target, cols, batch)
		})
	metrics.RecordStep(r.opts.Job, "load", err, time.Since(start))
	metrics.RecordRow(r.opts.Job, metrics.RowsWritten, n)
	if err != nil {
		return target, n, fmt.Errorf("load %s: %w", target, err)
	}
	log.Info("ingest: target loaded", "target", target, "rows", len(rows), "written", n,
		"columns", len(tbl.Columns), "elapsed", time.Since(start).Truncate(time.Millisecond))
	return target, n, nil
}

// renameColumns replaces tbl's column names position by position.
func renameColumns(tbl *record.Table, names []string) {
	same := true
	for i := range names {
		if names[i] != tbl.Columns[i] {
			same = false
			break
		}
	}
	if same {
		return
	}
	for i, rec := range tbl.Records {
		out := make(record.Record, len(names))
		for j, from := range tbl.Columns {
			if v, ok := rec[from]; ok {
				out[names[j]] = v
			}
		}
		tbl.Records[i] = out
	}
	tbl.Columns = names
}

// stage returns a local readable path for src, honoring the cache.
func (r *Runner) stage(ctx context.Context, src string) (string, error) {
	return r.opts.Cache.LocalCopy(ctx, src)
}
