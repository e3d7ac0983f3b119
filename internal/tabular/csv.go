package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

func readCSV(r io.Reader) ([]record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var records []record
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parsing csv: %w", err)
		}
		// csv.Reader drops empty lines; FieldPos keeps the file's numbering.
		line, _ := cr.FieldPos(0)
		records = append(records, record{line: line, fields: fields})
	}
}

func writeCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("writing csv rows: %w", err)
	}
	return nil
}
