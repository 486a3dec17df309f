package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"refinener/internal/domain"
	"refinener/internal/port"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// Writer wraps csv.Writer for exporting datasets as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the dataset's column names in display order.
func (w *Writer) WriteHeader(ds port.Dataset) error {
	columns := ds.Columns()
	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = c.Name
	}
	return w.csv.Write(header)
}

// WriteRows writes every row's cell texts in display order. Blank cells
// are written as empty fields; error cells carry their message.
func (w *Writer) WriteRows(ds port.Dataset) error {
	columns := ds.Columns()
	for r := 0; r < ds.RowCount(); r++ {
		if err := w.csv.Write(rowToRecord(ds, columns, r)); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// Export writes a BOM, the header, and every row of ds to out.
func Export(out io.Writer, ds port.Dataset) error {
	if _, err := out.Write(BOM); err != nil {
		return err
	}
	w := NewWriter(out)
	if err := w.WriteHeader(ds); err != nil {
		return err
	}
	if err := w.WriteRows(ds); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func rowToRecord(ds port.Dataset, columns []domain.Column, r int) []string {
	record := make([]string, len(columns))
	for i, c := range columns {
		if cell := ds.Cell(r, c.CellIndex); cell != nil {
			record[i] = cell.Text
		}
	}
	return record
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a project name for use in Content-Disposition or
// an object key. Replaces non-alphanumeric chars (except - _) with _,
// collapses consecutive underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "dataset"
	}
	return s
}

// BuildFilename returns a sanitized filename for an export.
// Format: {sanitized_project_name}_{YYYY-MM-DD}.{ext}
func BuildFilename(projectName, ext string) string {
	sanitized := SanitizeFilename(projectName)
	date := time.Now().Format("2006-01-02")
	return fmt.Sprintf("%s_%s.%s", sanitized, date, ext)
}
