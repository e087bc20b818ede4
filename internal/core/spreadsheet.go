package core

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const (
	// DefaultSheetName is the name of the single export sheet.
	DefaultSheetName = "Registro"

	// XLSXContentType is the MIME type of an Office Open XML workbook.
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// EncodeWorkbook writes rows into a single-sheet xlsx document: a header row
// from Columns followed by one row per entry in order. The whole document is
// built in memory; any error discards it.
func EncodeWorkbook(sheet string, rows []Row) (*bytes.Buffer, error) {
	if sheet == "" {
		sheet = DefaultSheetName
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("workbook: rename sheet: %w", err)
	}

	for i, col := range Columns {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, fmt.Errorf("workbook: column %d: %w", i+1, err)
		}
		if err := f.SetColWidth(sheet, name, name, col.Width); err != nil {
			return nil, fmt.Errorf("workbook: width %s: %w", col.Label, err)
		}
	}

	header := make([]any, len(Columns))
	for i, label := range ColumnLabels() {
		header[i] = label
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("workbook: header: %w", err)
	}

	for i, row := range rows {
		if len(row) != len(Columns) {
			return nil, fmt.Errorf("encoding error: row %d has %d cells, want %d", i+1, len(row), len(Columns))
		}
		if err := checkCells(row); err != nil {
			return nil, fmt.Errorf("encoding error: row %d %w", i+1, err)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("workbook: row %d: %w", i+1, err)
		}
		values := []any(row)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("encoding error: row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("workbook: write: %w", err)
	}
	return buf, nil
}

// checkCells rejects text the workbook would store differently from what
// was given: values over the cell length limit are truncated and control
// characters outside tab, LF and CR are replaced.
func checkCells(row Row) error {
	for i, v := range row {
		str, ok := v.(string)
		if !ok {
			continue
		}
		if n := utf8.RuneCountInString(str); n > excelize.TotalCellChars {
			return fmt.Errorf("column %s: %d characters exceeds the cell limit of %d",
				Columns[i].Label, n, excelize.TotalCellChars)
		}
		for _, r := range str {
			if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
				return fmt.Errorf("column %s: control character %U cannot be stored", Columns[i].Label, r)
			}
		}
	}
	return nil
}
