package file

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// Tree writes an indented listing of root to w, directories first, down to
// depth levels (-1 for unbounded). Unreadable directories are reported inline.
func Tree(w io.Writer, root string, depth int) error {
	if _, err := fmt.Fprintln(w, filepath.Clean(root)+string(filepath.Separator)); err != nil {
		return err
	}
	return tree(w, root, "  ", depth)
}

func tree(w io.Writer, dir, indent string, depth int) error {
	if depth == 0 {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		_, werr := fmt.Fprintf(w, "%s[error: %v]\n", indent, err)
		return werr
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return entries[i].Name() < entries[j].Name()
	})
	for _, e := range entries {
		if e.IsDir() {
			if _, err := fmt.Fprintf(w, "%s%s/\n", indent, e.Name()); err != nil {
				return err
			}
			if err := tree(w, filepath.Join(dir, e.Name()), indent+"  ", depth-1); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "%s%s\n", indent, e.Name()); err != nil {
			return err
		}
	}
	return nil
}
