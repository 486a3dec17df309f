package dataset

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"refinener/internal/port"
)

const exportSheet = "Sheet1"

// readXLSX returns the header and records of the first sheet.
func readXLSX(r io.Reader) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("opening xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("reading xlsx: workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("reading xlsx sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("reading xlsx: no header row")
	}
	header := rows[0]
	records := rows[1:]
	for i, row := range records {
		if len(row) > len(header) {
			return nil, nil, fmt.Errorf("reading xlsx: row %d has %d cells, header has %d", i+2, len(row), len(header))
		}
	}
	return header, records, nil
}

// WriteXLSX writes ds as a single-sheet workbook. Error cells are set in red
// and entity cells link to their first candidate URI.
func WriteXLSX(w io.Writer, ds port.Dataset) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	errStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "C00000", Italic: true},
	})
	if err != nil {
		return fmt.Errorf("creating error style: %w", err)
	}

	columns := ds.Columns()
	for c, col := range columns {
		name, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(exportSheet, name, col.Name); err != nil {
			return fmt.Errorf("writing header %q: %w", col.Name, err)
		}
	}

	for r := 0; r < ds.RowCount(); r++ {
		for c, col := range columns {
			cell := ds.Cell(r, col.CellIndex)
			if cell == nil {
				continue
			}
			name, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(exportSheet, name, cell.Text); err != nil {
				return fmt.Errorf("writing cell %s: %w", name, err)
			}
			switch {
			case cell.IsError:
				if err := f.SetCellStyle(exportSheet, name, name, errStyle); err != nil {
					return fmt.Errorf("styling cell %s: %w", name, err)
				}
			case len(cell.Candidates) > 0 && cell.Candidates[0].URI != "":
				if err := f.SetCellHyperLink(exportSheet, name, cell.Candidates[0].URI, "External"); err != nil {
					return fmt.Errorf("linking cell %s: %w", name, err)
				}
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing xlsx: %w", err)
	}
	return nil
}
