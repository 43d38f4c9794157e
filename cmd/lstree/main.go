// Command lstree prints an indented listing of a data folder, directories
// first, to check where the workbooks landed before a run.
//
//	lstree -root /mnt/pisa -depth 2
package main

import (
	"flag"
	"fmt"
	"os"

	"pisaetl/internal/datasource/file"
)

func main() {
	root := flag.String("root", ".", "directory to list")
	depth := flag.Int("depth", -1, "levels to descend (-1 for unbounded)")
	flag.Parse()

	if err := file.Tree(os.Stdout, *root, *depth); err != nil {
		fmt.Fprintf(os.Stderr, "lstree: %v\n", err)
		os.Exit(1)
	}
}
