// Package file locates and stages input workbooks on the local filesystem.
package file

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when no file under the root matches.
var ErrNotFound = errors.New("no matching file")

// FindOptions tunes Find.
type FindOptions struct {
	// MaxDepth bounds how many directories below root are searched;
	// -1 is unbounded and 0 searches root only.
	MaxDepth        int
	CaseInsensitive bool
}

// DefaultFindOptions is an unbounded, case-insensitive search.
var DefaultFindOptions = FindOptions{MaxDepth: -1, CaseInsensitive: true}

// Find walks root in lexical order and returns the first regular file that
// matches any pattern. A pattern matches when it equals the base name, is a
// slash-separated suffix of the path ("STU/STU_BRA.xlsx"), or glob-matches the
// base name or the root-relative path.
func Find(root string, patterns []string, opts FindOptions) (string, error) {
	if len(patterns) == 0 {
		return "", fmt.Errorf("find under %s: no patterns", root)
	}
	norm := func(s string) string {
		s = strings.ReplaceAll(s, `\`, "/")
		if opts.CaseInsensitive {
			s = strings.ToLower(s)
		}
		return s
	}
	pats := make([]string, len(patterns))
	for i, p := range patterns {
		pats[i] = norm(p)
	}

	var found string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, rerr := filepath.Rel(root, p)
		if rerr != nil {
			return rerr
		}
		if d.IsDir() {
			if rel != "." && opts.MaxDepth >= 0 && depth(rel) > opts.MaxDepth {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if matchAny(norm(p), norm(d.Name()), norm(rel), pats) {
			found = p
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walk %s: %w", root, err)
	}
	if found == "" {
		return "", fmt.Errorf("%w under %s for %v", ErrNotFound, root, patterns)
	}
	return found, nil
}

// FindRequired resolves one pattern set per entry and fails on the first
// set with no match. Results are in argument order.
func FindRequired(root string, opts FindOptions, sets ...[]string) ([]string, error) {
	out := make([]string, 0, len(sets))
	for _, pats := range sets {
		p, err := Find(root, pats, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// depth counts directories in a root-relative directory path.
func depth(rel string) int {
	return strings.Count(filepath.ToSlash(rel), "/") + 1
}

func matchAny(full, base, rel string, pats []string) bool {
	for _, pat := range pats {
		if base == pat || full == pat || strings.HasSuffix(full, "/"+pat) {
			return true
		}
		if ok, _ := path.Match(pat, base); ok {
			return true
		}
		if ok, _ := path.Match(pat, rel); ok {
			return true
		}
	}
	return false
}
