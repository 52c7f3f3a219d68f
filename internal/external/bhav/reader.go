package bhav

import (
	"encoding/csv"
	"fmt"
	"io"
)

// Reader yields header-keyed rows from a BSE bhav-copy CSV stream. It
// implements contracts.RowSource. The pipeline never sees raw CSV records,
// only field-value mappings.
type Reader struct {
	csv    *csv.Reader
	header []string
}

// NewReader wraps a CSV stream and consumes its header row
func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	// Bhav files occasionally carry ragged trailing columns
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	return &Reader{csv: cr, header: header}, nil
}

// Header returns the column names in file order
func (r *Reader) Header() []string {
	return r.header
}

// Next returns the next row keyed by header name, or io.EOF after the last
// row. Columns beyond the header length are dropped; missing trailing
// columns are simply absent from the map.
func (r *Reader) Next() (map[string]string, error) {
	record, err := r.csv.Read()
	if err != nil {
		return nil, err
	}

	row := make(map[string]string, len(r.header))
	for idx, name := range r.header {
		if idx < len(record) {
			row[name] = record[idx]
		}
	}
	return row, nil
}
