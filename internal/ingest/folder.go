package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"pisaetl/internal/ddl"
	"pisaetl/internal/logging"
	"pisaetl/internal/metrics"
	xlsxparser "pisaetl/internal/parser/xlsx"
)

// FolderOptions selects the workbooks of a folder run.
type FolderOptions struct {
	Recursive bool
	// OnlyPrefixes keeps files whose base name starts with one of them.
	OnlyPrefixes []string
}

// ListWorkbooks returns the .xlsx files under root in lexical order. Excel
// lock files (~$name.xlsx) are skipped.
func ListWorkbooks(root string, opts FolderOptions) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && !opts.Recursive {
				return fs.SkipDir
			}
			return nil
		}
		if KeepWorkbook(d.Name(), opts.OnlyPrefixes) {
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", root, err)
	}
	sort.Strings(out)
	return out, nil
}

// KeepWorkbook reports whether a file name is an .xlsx workbook (not a lock
// file) starting with one of prefixes; no prefixes keeps every workbook.
func KeepWorkbook(name string, prefixes []string) bool {
	if !strings.EqualFold(filepath.Ext(name), ".xlsx") || strings.HasPrefix(name, "~$") {
		return false
	}
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// Folder loads every workbook under root. A workbook that fails is logged,
// counted and skipped; only a failure to list root is returned as an error.
func (r *Runner) Folder(ctx context.Context, root string, opts FolderOptions) ([]Result, []Failure, error) {
	log := logging.FromContext(ctx)
	start := time.Now()
	files, err := ListWorkbooks(root, opts)
	metrics.RecordStep(r.opts.Job, "locate", err, time.Since(start))
	if err != nil {
		return nil, nil, err
	}
	log.Info("ingest: folder scanned", "root", root, "workbooks", len(files), "recursive", opts.Recursive)

	var (
		results  []Result
		failures []Failure
	)
	for _, p := range files {
		if err := ctx.Err(); err != nil {
			return results, failures, err
		}
		res, err := r.File(ctx, p)
		results = append(results, res...)
		if err != nil {
			log.Error("ingest: workbook failed", "file", p, "err", err)
			metrics.RecordFile(r.opts.Job, metrics.FileFailed)
			failures = append(failures, Failure{Path: p, Err: err})
			continue
		}
		metrics.RecordFile(r.opts.Job, metrics.FileLoaded)
	}
	return results, failures, nil
}

// File loads each sheet of the workbook at path into its own target. It
// stops at the first sheet that fails and returns what was loaded so far.
func (r *Runner) File(ctx context.Context, path string) ([]Result, error) {
	log := logging.WithFields(ctx, "file", filepath.Base(path))
	local, err := r.stage(ctx, path)
	if err != nil {
		return nil, err
	}
	sheets, err := xlsxparser.Sheets(local)
	if err != nil {
		return nil, err
	}

	var out []Result
	for _, sheet := range sheets {
		start := time.Now()
		tbl, err := xlsxparser.ReadAll(local, sheet)
		metrics.RecordStep(r.opts.Job, "read", err, time.Since(start))
		if err != nil {
			return out, fmt.Errorf("sheet %q: %w", sheet, err)
		}
		if len(tbl.Columns) == 0 {
			log.Info("ingest: blank sheet skipped", "sheet", sheet)
			continue
		}
		metrics.RecordRow(r.opts.Job, metrics.RowsRead, int64(tbl.Len()))
		log.Debug("ingest: sheet read", "sheet", sheet, "rows", tbl.Len(), "columns", len(tbl.Columns))

		target, n, err := r.load(ctx, TargetName(path, sheet, len(sheets)), tbl, ddl.Hints{})
		out = append(out, Result{Source: path, Sheet: sheet, Target: target, Read: tbl.Len(), Written: n})
		if err != nil {
			return out, err
		}
	}
	return out, nil
}
