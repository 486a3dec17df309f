package csvexport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

// Read parses a CSV document into a header and records. A leading BOM is
// skipped and rows may have fewer fields than the header.
func Read(r io.Reader) ([]string, [][]string, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(BOM)); err == nil && bytes.Equal(prefix, BOM) {
		_, _ = br.Discard(len(BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("reading csv: no header row")
	}
	header := records[0]
	rows := records[1:]
	for i, row := range rows {
		if len(row) > len(header) {
			return nil, nil, fmt.Errorf("reading csv: row %d has %d fields, header has %d", i+2, len(row), len(header))
		}
	}
	return header, rows, nil
}
