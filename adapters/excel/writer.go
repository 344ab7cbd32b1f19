package excel

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"surveydash/domain/dataset"
)

// DefaultSheet is the name of the exported worksheet
const DefaultSheet = "Sheet1"

// ContentType is the MIME type of exported workbooks
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Write exports a table as a single-sheet workbook whose first row holds the
// column names. Numbers are written as numeric cells, missing values as
// empty cells.
func Write(w io.Writer, table *dataset.Table, sheet string) error {
	if sheet == "" {
		sheet = DefaultSheet
	}

	f := excelize.NewFile()
	defer f.Close()

	if sheet != DefaultSheet {
		if err := f.SetSheetName(DefaultSheet, sheet); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
	}

	columns := table.Columns()
	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range table.Rows() {
		for j, c := range columns {
			v := r.Get(c)
			if v.IsMissing() {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, cellValue(v)); err != nil {
				return fmt.Errorf("write row %d: %w", i+1, err)
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func cellValue(v dataset.Value) interface{} {
	if n, ok := v.Float(); ok {
		return n
	}
	return v.Text()
}
