// Package xlsxtest writes small workbooks for tests.
package xlsxtest

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// Sheet is one worksheet: rows of cell values (string, float64, int, nil).
type Sheet struct {
	Name string
	Rows [][]any
}

// Write saves sheets, in order, as a workbook at path and fails the test on
// error. With no sheets the workbook keeps excelize's default "Sheet1".
func Write(tb testing.TB, path string, sheets ...Sheet) string {
	tb.Helper()
	if err := write(path, sheets); err != nil {
		tb.Fatalf("xlsxtest: %v", err)
	}
	return path
}

// WriteIn is Write into dir/name.
func WriteIn(tb testing.TB, dir, name string, sheets ...Sheet) string {
	tb.Helper()
	return Write(tb, filepath.Join(dir, name), sheets...)
}

func write(path string, sheets []Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	const defaultSheet = "Sheet1"
	for i, s := range sheets {
		if i == 0 {
			if s.Name != defaultSheet {
				if err := f.SetSheetName(defaultSheet, s.Name); err != nil {
					return err
				}
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return err
		}
		for r, row := range s.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return err
			}
			vals := row
			if err := f.SetSheetRow(s.Name, cell, &vals); err != nil {
				return fmt.Errorf("sheet %s row %d: %w", s.Name, r+1, err)
			}
		}
	}
	return f.SaveAs(path)
}
