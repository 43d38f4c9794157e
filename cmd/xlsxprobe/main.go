// Command xlsxprobe prints the sheets of a workbook, the sheet the loader
// would pick, its header and its first rows.
//
// Example usage:
//
//	xlsxprobe -i STU/STU_BRA.xlsx -n 3
//	xlsxprobe -i PISA2018_CODEBOOK.xlsx -sheet STU -json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	xlsxparser "pisaetl/internal/parser/xlsx"
)

// probeReport is the -json output.
type probeReport struct {
	Path   string           `json:"path"`
	Sheets []string         `json:"sheets"`
	Picked string           `json:"picked"`
	Header []string         `json:"header"`
	Rows   []map[string]any `json:"rows"`
}

func main() {
	inputPath := flag.String("i", "", "input .xlsx path")
	sheet := flag.String("sheet", "", "sheet to read (default: the one the loader picks)")
	n := flag.Int("n", 5, "number of data rows to print")
	asJSON := flag.Bool("json", false, "print a JSON report")
	flag.Parse()

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "missing required -i <workbook.xlsx>")
		os.Exit(2)
	}
	rep, err := probe(*inputPath, *sheet, *n)
	if err != nil {
		fmt.Fprintf(os.Stderr, "xlsxprobe: %v\n", err)
		os.Exit(1)
	}
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		err = enc.Encode(rep)
	} else {
		err = writeText(os.Stdout, rep)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "xlsxprobe: %v\n", err)
		os.Exit(1)
	}
}

func probe(path, sheet string, n int) (probeReport, error) {
	sheets, err := xlsxparser.Sheets(path)
	if err != nil {
		return probeReport{}, err
	}
	rep := probeReport{Path: path, Sheets: sheets, Picked: xlsxparser.PickSheet(sheets)}
	if sheet == "" {
		sheet = rep.Picked
	}
	if rep.Header, err = xlsxparser.ReadHeader(path, sheet); err != nil {
		return probeReport{}, err
	}
	if n < 1 {
		return rep, nil
	}
	tbl, err := xlsxparser.ReadAll(path, sheet)
	if err != nil {
		return probeReport{}, err
	}
	for i, r := range tbl.Records {
		if i >= n {
			break
		}
		row := make(map[string]any, len(rep.Header))
		for _, c := range rep.Header {
			row[c] = r.Get(c).Any()
		}
		rep.Rows = append(rep.Rows, row)
	}
	return rep, nil
}

func writeText(w io.Writer, rep probeReport) error {
	var b strings.Builder
	fmt.Fprintf(&b, "file:   %s\n", rep.Path)
	fmt.Fprintf(&b, "sheets: %s\n", strings.Join(rep.Sheets, ", "))
	fmt.Fprintf(&b, "picked: %s\n", rep.Picked)
	fmt.Fprintf(&b, "header (%d): %s\n", len(rep.Header), strings.Join(rep.Header, " | "))
	for i, row := range rep.Rows {
		cells := make([]string, len(rep.Header))
		for j, c := range rep.Header {
			if v := row[c]; v != nil {
				cells[j] = fmt.Sprint(v)
			}
		}
		fmt.Fprintf(&b, "%4d: %s\n", i+1, strings.Join(cells, " | "))
	}
	_, err := io.WriteString(w, b.String())
	return err
}
