package tabular

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

func readXLSX(r io.Reader) ([]record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing xlsx: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("xlsx file has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading xlsx rows: %w", err)
	}

	// GetRows pads empty rows, so index i is sheet row i+1.
	records := make([]record, len(rows))
	for i, fields := range rows {
		records[i] = record{line: i + 1, fields: fields}
	}
	return records, nil
}

func writeXLSX(w io.Writer, t *Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := t.Sheet
	if sheet == "" {
		sheet = "Sheet1"
	}
	if sheet != "Sheet1" {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("creating sheet: %w", err)
		}
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("removing default sheet: %w", err)
		}
		index, err := f.GetSheetIndex(sheet)
		if err != nil {
			return fmt.Errorf("locating sheet: %w", err)
		}
		f.SetActiveSheet(index)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	for col, h := range t.Header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("setting header %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("styling header %s: %w", cell, err)
		}
	}

	for i, rec := range t.Rows {
		for col, v := range rec {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("setting cell %s: %w", cell, err)
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing xlsx: %w", err)
	}
	return nil
}
