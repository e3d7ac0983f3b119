// Package tabular reads and writes header-keyed tables as CSV or XLSX.
package tabular

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Format is a supported file format.
type Format string

// Formats.
const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// ParseFormat accepts "csv" or "xlsx" in any case. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return CSV, nil
	case "xlsx", "excel":
		return XLSX, nil
	}
	return "", fmt.Errorf("unsupported format %q", s)
}

// FormatFromFilename picks XLSX for .xlsx files and CSV otherwise.
func FormatFromFilename(name string) Format {
	if strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return XLSX
	}
	return CSV
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == XLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Row is one data row keyed by lower-cased header name.
type Row struct {
	// Line is the row's 1-based line in the source file, counting the
	// header and any blank lines.
	Line int

	values map[string]string
}

// Get returns the trimmed value under key, matching headers
// case-insensitively.
func (r Row) Get(key string) string {
	return strings.TrimSpace(r.values[strings.ToLower(key)])
}

// Has reports whether the table had a column named key.
func (r Row) Has(key string) bool {
	_, ok := r.values[strings.ToLower(key)]
	return ok
}

// record is one raw source row and the line it started on.
type record struct {
	line   int
	fields []string
}

// Table is an ordered header plus rows, used for writing.
type Table struct {
	Sheet  string
	Header []string
	Rows   [][]string
}

// Read parses a table with a header row. Blank rows are skipped but still
// count towards Row.Line.
func Read(r io.Reader, f Format) ([]Row, error) {
	var records []record
	var err error
	switch f {
	case XLSX:
		records, err = readXLSX(r)
	default:
		records, err = readCSV(r)
	}
	if err != nil {
		return nil, err
	}
	return keyed(records)
}

// Write serializes t in format f.
func Write(w io.Writer, f Format, t *Table) error {
	if f == XLSX {
		return writeXLSX(w, t)
	}
	return writeCSV(w, t)
}

func keyed(records []record) ([]Row, error) {
	// Leading blank rows come before the header.
	for len(records) > 0 && blank(records[0].fields) {
		records = records[1:]
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("missing header row")
	}
	header := make([]string, len(records[0].fields))
	for i, h := range records[0].fields {
		h = strings.TrimPrefix(h, "\ufeff")
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		if blank(rec.fields) {
			continue
		}
		row := Row{Line: rec.line, values: make(map[string]string, len(header))}
		for i, h := range header {
			if h == "" {
				continue
			}
			if i < len(rec.fields) {
				row.values[h] = rec.fields[i]
			} else {
				row.values[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
