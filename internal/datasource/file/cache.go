package file

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/xxh3"
)

// Cache stages files that live under a slow remote mount into a local
// directory before they are read.
type Cache struct {
	// Dir holds the copies; os.TempDir() when empty.
	Dir string
	// RemotePrefix marks paths to copy. Empty disables caching.
	RemotePrefix string
}

// LocalCopy returns a readable local path for src. Paths outside
// RemotePrefix are returned unchanged. An existing copy is reused unless the
// source has a newer modification time. The copy is opportunistic: when it
// cannot be made, src itself is returned.
func (c Cache) LocalCopy(ctx context.Context, src string) (string, error) {
	if c.RemotePrefix == "" || !strings.HasPrefix(filepath.ToSlash(src), filepath.ToSlash(c.RemotePrefix)) {
		return src, nil
	}
	dst, err := c.copy(ctx, src)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		slog.Warn("cache: reading remote file directly", "src", src, "err", err)
		return src, nil
	}
	return dst, nil
}

// target maps src to its place in the cache, mirroring the layout below
// RemotePrefix so equal base names in different folders never collide.
func (c Cache) target(src string) string {
	dir := c.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	rel, err := filepath.Rel(c.RemotePrefix, src)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel = fmt.Sprintf("%016x_%s", xxh3.HashString(src), filepath.Base(src))
	}
	return filepath.Join(dir, rel)
}

func (c Cache) copy(ctx context.Context, src string) (string, error) {
	dst := c.target(src)
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("cache dir %s: %w", dir, err)
	}

	in := NewLocal(src)
	srcTime, err := in.ModTime()
	if err != nil {
		return "", err
	}
	if dstTime, err := NewLocal(dst).ModTime(); err == nil && !srcTime.After(dstTime) {
		slog.Debug("cache: reuse local copy", "src", src, "dst", dst)
		return dst, nil
	}

	rc, err := in.Open(ctx)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	tmp, err := os.CreateTemp(dir, filepath.Base(src)+".*.part")
	if err != nil {
		return "", fmt.Errorf("cache temp: %w", err)
	}
	if _, err := io.Copy(tmp, rc); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("copy %s: %w", src, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("copy %s: %w", src, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("cache rename: %w", err)
	}
	// The copy must not look older than the source on the next run.
	if err := os.Chtimes(dst, srcTime, srcTime); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("cache chtimes: %w", err)
	}
	slog.Info("cache: copied to local", "src", src, "dst", dst)
	return dst, nil
}
