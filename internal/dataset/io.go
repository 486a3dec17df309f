package dataset

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"refinener/internal/csvexport"
	"refinener/internal/domain"
	"refinener/internal/port"
)

// FormatFromFilename returns the dataset format for a file name's extension.
func FormatFromFilename(name string) (domain.DatasetFormat, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	format, ok := domain.DatasetExtensions[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, ext)
	}
	return format, nil
}

// Load parses a csv or xlsx document into a Table. The first row is the header.
func Load(r io.Reader, format domain.DatasetFormat) (*Table, error) {
	var (
		header  []string
		records [][]string
		err     error
	)
	switch format {
	case domain.DatasetFormatCSV:
		header, records, err = csvexport.Read(r)
	case domain.DatasetFormatXLSX:
		header, records, err = readXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.TrimSpace(h)
		if names[i] == "" {
			names[i] = fmt.Sprintf("Column %d", i+1)
		}
	}
	t, err := NewTable(names...)
	if err != nil {
		return nil, fmt.Errorf("dataset.Load: header: %w", err)
	}
	for _, rec := range records {
		if err := t.AppendRow(rec...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Export writes ds in the given format.
func Export(w io.Writer, ds port.Dataset, format domain.DatasetFormat) error {
	switch format {
	case domain.DatasetFormatCSV:
		return csvexport.Export(w, ds)
	case domain.DatasetFormatXLSX:
		return WriteXLSX(w, ds)
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
	}
}
