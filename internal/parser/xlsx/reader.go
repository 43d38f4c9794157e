// Package xlsx reads survey workbooks into record tables with excelize.
//
// Reads are two-pass where it pays off: the header row is probed first so
// wide sheets can be re-read keeping only the wanted columns.
package xlsx

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"pisaetl/internal/record"
)

// ErrNoSheets is returned for a workbook without worksheets.
var ErrNoSheets = errors.New("workbook has no sheets")

// rawCells makes numeric cells come back unformatted.
var rawCells = excelize.Options{RawCellValue: true}

// Result is the outcome of ReadSelected.
type Result struct {
	Table *record.Table
	// Degraded is set when none of the wanted columns existed and the whole
	// sheet was read instead.
	Degraded bool
}

// Sheets lists the worksheet names of the workbook at path, in tab order.
func Sheets(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoSheets)
	}
	return names, nil
}

// PickSheet prefers a sheet named "data", then the first whose name
// contains "data", then the first sheet. Matching ignores case and
// surrounding spaces. It returns "" for an empty list.
func PickSheet(names []string) string {
	if len(names) == 0 {
		return ""
	}
	for _, n := range names {
		if strings.EqualFold(strings.TrimSpace(n), "data") {
			return n
		}
	}
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), "data") {
			return n
		}
	}
	return names[0]
}

// ReadHeader returns the trimmed cells of the first non-empty row of sheet.
// Blank cells become COL_<j> (1-based) and repeated names get a ".<n>" suffix.
func ReadHeader(path, sheet string) ([]string, error) {
	var header []string
	err := scan(path, sheet, func(cells []string) bool {
		if isBlank(cells) {
			return true
		}
		header = headerNames(cells)
		return false
	})
	if err != nil {
		return nil, err
	}
	return header, nil
}

// ReadAll reads every column of sheet. The first non-empty row is the header;
// later blank rows are skipped.
func ReadAll(path, sheet string) (*record.Table, error) {
	return readColumns(path, sheet, nil)
}

// ReadSelected reads only the wanted columns that exist in sheet, in sheet
// order. When none exists it logs a warning and returns the full sheet with
// Degraded set.
func ReadSelected(path, sheet string, wanted []string) (Result, error) {
	want := make(map[string]struct{}, len(wanted))
	for _, w := range wanted {
		want[w] = struct{}{}
	}
	return ReadMatching(path, sheet, func(h string) bool {
		_, ok := want[h]
		return ok
	})
}

// ReadMatching is ReadSelected with a predicate over header names.
func ReadMatching(path, sheet string, keepCol func(string) bool) (Result, error) {
	header, err := ReadHeader(path, sheet)
	if err != nil {
		return Result{}, err
	}
	var keep []int
	for i, h := range header {
		if keepCol(h) {
			keep = append(keep, i)
		}
	}
	if len(keep) == 0 {
		slog.Warn("xlsx: no wanted column present; reading full sheet",
			"file", path, "sheet", sheet, "header", len(header))
		t, err := ReadAll(path, sheet)
		return Result{Table: t, Degraded: true}, err
	}
	t, err := readColumns(path, sheet, keep)
	return Result{Table: t}, err
}

// readColumns reads sheet keeping the header positions in keep (all when nil).
func readColumns(path, sheet string, keep []int) (*record.Table, error) {
	t := &record.Table{Name: sheet}
	var header []string
	err := scan(path, sheet, func(cells []string) bool {
		if isBlank(cells) {
			return true
		}
		if header == nil {
			header = headerNames(cells)
			if keep == nil {
				keep = make([]int, len(header))
				for i := range keep {
					keep[i] = i
				}
			}
			t.Columns = make([]string, len(keep))
			for j, i := range keep {
				t.Columns[j] = header[i]
			}
			return true
		}
		rec := make(record.Record, len(keep))
		for j, i := range keep {
			var raw string
			if i < len(cells) {
				raw = cells[i]
			}
			rec[t.Columns[j]] = CellValue(raw)
		}
		t.Records = append(t.Records, rec)
		return true
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// scan streams the rows of sheet into fn until fn returns false.
func scan(path, sheet string, fn func(cells []string) bool) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.Rows(sheet)
	if err != nil {
		return fmt.Errorf("%s sheet %q: %w", path, sheet, err)
	}
	defer rows.Close()

	for rows.Next() {
		cells, err := rows.Columns(rawCells)
		if err != nil {
			return fmt.Errorf("%s sheet %q: %w", path, sheet, err)
		}
		if !fn(cells) {
			return nil
		}
	}
	if err := rows.Error(); err != nil {
		return fmt.Errorf("%s sheet %q: %w", path, sheet, err)
	}
	return nil
}

// CellValue converts raw cell text: blank is Null, a parseable number is a
// Float (NaN and infinities collapse to Null), anything else a String.
func CellValue(raw string) record.Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return record.Null()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return record.Float(f)
	}
	return record.String(raw)
}

func headerNames(cells []string) []string {
	out := make([]string, len(cells))
	seen := make(map[string]int, len(cells))
	for j, c := range cells {
		name := strings.TrimSpace(c)
		if name == "" {
			name = "COL_" + strconv.Itoa(j+1)
		}
		if n, dup := seen[name]; dup {
			base := name
			for {
				n++
				name = base + "." + strconv.Itoa(n)
				if _, taken := seen[name]; !taken {
					break
				}
			}
			seen[base] = n
		}
		seen[name] = 0
		out[j] = name
	}
	return out
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
