package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// Local opens a file from the local disk.
type Local struct{ path string }

// NewLocal returns a Local bound to path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path returns the bound path.
func (l *Local) Path() string { return l.path }

// Open returns ctx.Err() without touching the filesystem when ctx is already
// done; otherwise it opens the file. Errors keep os.ErrNotExist reachable
// through errors.Is.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}

// ModTime returns the file's modification time.
func (l *Local) ModTime() (time.Time, error) {
	fi, err := os.Stat(l.path)
	if err != nil {
		return time.Time{}, fmt.Errorf("stat %s: %w", l.path, err)
	}
	return fi.ModTime(), nil
}
