package xlsx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"pisaetl/internal/record"
)

const (
	codebookIndexSheet = "pisa 2018 database"
	headerScanRows     = 30
)

// codebookOrder is the column order of a variable sheet; other columns follow.
var codebookOrder = []string{"NAME", "VARLABEL", "TYPE", "FORMAT", "VARNUM", "MINMAX", "VAL", "LABEL", "COUNT", "PERCENT"}

// ReadCodebook reads every sheet of a PISA codebook workbook, one table per
// sheet in tab order. The header of a variable sheet is the first of the top
// 30 rows holding both NAME and VARLABEL, else the first non-empty row. The
// index sheet "PISA 2018 Database" has no header and gets REF, DESCRIPTION,
// EXTRA_<i>. Empty rows and columns are dropped.
func ReadCodebook(path string) ([]*record.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoSheets)
	}
	out := make([]*record.Table, 0, len(sheets))
	for _, sheet := range sheets {
		raw, err := f.GetRows(sheet, rawCells)
		if err != nil {
			return nil, fmt.Errorf("%s sheet %q: %w", path, sheet, err)
		}
		var t *record.Table
		if strings.EqualFold(strings.TrimSpace(sheet), codebookIndexSheet) {
			t = indexSheet(raw)
		} else {
			t = variableSheet(raw)
		}
		t.Name = sheet
		out = append(out, t)
	}
	return out, nil
}

func indexSheet(raw [][]string) *record.Table {
	grid := dropEmpty(raw)
	width := gridWidth(grid)
	cols := make([]string, width)
	for j := range cols {
		switch {
		case width < 2:
			cols[j] = "COL_" + strconv.Itoa(j+1)
		case j == 0:
			cols[j] = "REF"
		case j == 1:
			cols[j] = "DESCRIPTION"
		default:
			cols[j] = "EXTRA_" + strconv.Itoa(j-2)
		}
	}
	return toTable(cols, grid)
}

func variableSheet(raw [][]string) *record.Table {
	hdr := -1
	for i := 0; i < len(raw) && i < headerScanRows; i++ {
		if hasCells(raw[i], "NAME", "VARLABEL") {
			hdr = i
			break
		}
	}
	if hdr < 0 {
		for i, row := range raw {
			if !isBlank(row) {
				hdr = i
				break
			}
		}
	}
	if hdr < 0 {
		return &record.Table{}
	}

	body := raw[hdr+1:]
	width := max(len(raw[hdr]), gridWidth(body))
	header := make([]string, width)
	copy(header, raw[hdr])
	names := headerNames(header)

	// Drop empty columns against the body only, then empty rows.
	var keep []int
	for j := 0; j < width; j++ {
		for _, row := range body {
			if j < len(row) && strings.TrimSpace(row[j]) != "" {
				keep = append(keep, j)
				break
			}
		}
	}
	cols := make([]string, len(keep))
	grid := make([][]string, 0, len(body))
	for k, j := range keep {
		cols[k] = names[j]
	}
	for _, row := range body {
		if isBlank(row) {
			continue
		}
		picked := make([]string, len(keep))
		for k, j := range keep {
			if j < len(row) {
				picked[k] = row[j]
			}
		}
		grid = append(grid, picked)
	}
	t := toTable(cols, grid)
	t.Columns = codebookColumnOrder(t.Columns)
	return t
}

// codebookColumnOrder puts the canonical codebook columns first when NAME
// and VARLABEL are both present (case-insensitive).
func codebookColumnOrder(cols []string) []string {
	byUpper := make(map[string]string, len(cols))
	for _, c := range cols {
		byUpper[strings.ToUpper(c)] = c
	}
	if _, ok := byUpper["NAME"]; !ok {
		return cols
	}
	if _, ok := byUpper["VARLABEL"]; !ok {
		return cols
	}
	ordered := make([]string, 0, len(cols))
	used := make(map[string]bool, len(cols))
	for _, k := range codebookOrder {
		if c, ok := byUpper[k]; ok {
			ordered = append(ordered, c)
			used[c] = true
		}
	}
	for _, c := range cols {
		if !used[c] {
			ordered = append(ordered, c)
		}
	}
	return ordered
}

// dropEmpty removes blank rows and columns that are blank in every row.
func dropEmpty(raw [][]string) [][]string {
	var rows [][]string
	for _, r := range raw {
		if !isBlank(r) {
			rows = append(rows, r)
		}
	}
	width := gridWidth(rows)
	var keep []int
	for j := 0; j < width; j++ {
		for _, r := range rows {
			if j < len(r) && strings.TrimSpace(r[j]) != "" {
				keep = append(keep, j)
				break
			}
		}
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = make([]string, len(keep))
		for k, j := range keep {
			if j < len(r) {
				out[i][k] = r[j]
			}
		}
	}
	return out
}

func toTable(cols []string, grid [][]string) *record.Table {
	t := &record.Table{Columns: cols, Records: make([]record.Record, 0, len(grid))}
	for _, row := range grid {
		rec := make(record.Record, len(cols))
		for j, c := range cols {
			if j < len(row) {
				rec[c] = CellValue(row[j])
			}
		}
		t.Records = append(t.Records, rec)
	}
	return t
}

func gridWidth(grid [][]string) int {
	w := 0
	for _, r := range grid {
		w = max(w, len(r))
	}
	return w
}

func hasCells(row []string, want ...string) bool {
	for _, w := range want {
		found := false
		for _, c := range row {
			if strings.EqualFold(strings.TrimSpace(c), w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
