package tabular

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX loads the first sheet of a workbook. Cell values are read raw so
// long numeric phone cells keep every digit. Cells right of the last header
// column are dropped.
func ReadXLSX(name string, r io.Reader) (Table, error) {
	t := Table{Name: name}

	x, err := excelize.OpenReader(r)
	if err != nil {
		return t, &MalformedInputError{Table: name, Err: err}
	}
	defer x.Close()

	sheets := x.GetSheetList()
	if len(sheets) == 0 {
		return t, &MalformedInputError{Table: name, Err: errors.New("workbook has no sheets")}
	}
	rows, err := x.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return t, &MalformedInputError{Table: name, Err: err}
	}

	start := -1
	for i, rec := range rows {
		if !blankRow(rec) {
			start = i
			break
		}
	}
	if start < 0 {
		return t, &MalformedInputError{Table: name, Err: fmt.Errorf("sheet %q is empty", sheets[0])}
	}

	t.Header = rows[start]
	for _, rec := range rows[start+1:] {
		if blankRow(rec) {
			continue
		}
		t.Rows = append(t.Rows, fit(rec, len(t.Header)))
	}
	return t, nil
}

// WriteXLSX writes one sheet per table, named after the table, and makes
// the first one active.
func WriteXLSX(w io.Writer, tables ...Table) error {
	x := excelize.NewFile()
	defer x.Close()

	for i, t := range tables {
		sheet := t.Name
		if sheet == "" {
			sheet = fmt.Sprintf("Sheet%d", i+1)
		}
		if i == 0 {
			if err := x.SetSheetName("Sheet1", sheet); err != nil {
				return err
			}
		} else if _, err := x.NewSheet(sheet); err != nil {
			return err
		}

		header := t.Header
		if err := x.SetSheetRow(sheet, "A1", &header); err != nil {
			return err
		}
		for r := range t.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return err
			}
			row := t.Rows[r]
			if err := x.SetSheetRow(sheet, cell, &row); err != nil {
				return err
			}
		}
	}
	x.SetActiveSheet(0)
	return x.Write(w)
}
