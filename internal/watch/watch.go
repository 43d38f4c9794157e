// Package watch re-runs ingestion when a workbook under a folder is created
// or rewritten.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the burst of writes a spreadsheet save produces.
const DefaultDebounce = 500 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	Recursive bool
	Debounce  time.Duration
	// Match selects the files to report; .xlsx without Excel lock files
	// when nil.
	Match func(name string) bool
}

// HandlerFunc processes one changed file. Errors are logged and the watch
// continues.
type HandlerFunc func(ctx context.Context, path string) error

// Watcher delivers debounced file changes to a handler, one at a time.
type Watcher struct {
	fw   *fsnotify.Watcher
	opts Options
}

// New starts watching root (and its subdirectories when recursive).
func New(root string, opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Match == nil {
		opts.Match = IsWorkbook
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watcher: %w", err)
	}
	w := &Watcher{fw: fw, opts: opts}
	if err := w.addTree(root); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// IsWorkbook reports whether name is an .xlsx file other than a lock file.
func IsWorkbook(name string) bool {
	base := filepath.Base(name)
	return strings.EqualFold(filepath.Ext(base), ".xlsx") && !strings.HasPrefix(base, "~$")
}

func (w *Watcher) addTree(root string) error {
	if !w.opts.Recursive {
		if err := w.fw.Add(root); err != nil {
			return fmt.Errorf("watch %s: %w", root, err)
		}
		return nil
	}
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fw.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

// Run blocks until ctx is done, calling handle for each changed file once
// its writes settle. Handlers never overlap.
func (w *Watcher) Run(ctx context.Context, handle HandlerFunc) error {
	deb := newDebouncer(w.opts.Debounce)
	defer deb.stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if w.opts.Recursive && ev.Has(fsnotify.Create) && isDir(ev.Name) {
				if err := w.addTree(ev.Name); err != nil {
					slog.Warn("watch: cannot follow new directory", "dir", ev.Name, "err", err)
				}
				continue
			}
			if !w.opts.Match(ev.Name) {
				continue
			}
			deb.arm(ctx, ev.Name)

		case d := <-deb.ready:
			if !deb.take(d) {
				continue
			}
			slog.Info("watch: file changed", "file", d.name)
			if err := handle(ctx, d.name); err != nil {
				slog.Error("watch: handler failed", "file", d.name, "err", err)
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch: watcher error", "err", err)
		}
	}
}

type delivery struct {
	name string
	gen  uint64
}

type pending struct {
	timer *time.Timer
	gen   uint64
}

// debouncer holds one timer per path. Every arm bumps the generation so a
// timer that fired before it was stopped cannot deliver the path again.
type debouncer struct {
	delay   time.Duration
	ready   chan delivery
	pending map[string]pending
	gen     uint64
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay, ready: make(chan delivery, 16), pending: make(map[string]pending)}
}

func (d *debouncer) arm(ctx context.Context, name string) {
	if p, ok := d.pending[name]; ok {
		p.timer.Stop()
	}
	d.gen++
	dl := delivery{name: name, gen: d.gen}
	d.pending[name] = pending{gen: dl.gen, timer: time.AfterFunc(d.delay, func() {
		select {
		case d.ready <- dl:
		case <-ctx.Done():
		}
	})}
}

// take reports whether dl is the latest arm of its path and clears it.
func (d *debouncer) take(dl delivery) bool {
	p, ok := d.pending[dl.name]
	if !ok || p.gen != dl.gen {
		return false
	}
	delete(d.pending, dl.name)
	return true
}

func (d *debouncer) stop() {
	for _, p := range d.pending {
		p.timer.Stop()
	}
}

func isDir(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}

// Close stops watching.
func (w *Watcher) Close() error { return w.fw.Close() }
