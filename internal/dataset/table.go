// Package dataset is the in-memory tabular store behind port.Dataset and
// port.Project, with csv and xlsx import/export.
package dataset

import (
	"fmt"

	"refinener/internal/domain"
)

// Table is a grid of cells addressed by row and cell slot. Columns map
// display positions to slots; a slot outlives column reordering.
// Table is not safe for concurrent use; Project provides the locking.
type Table struct {
	columns       []domain.Column
	rows          [][]*domain.Cell
	nextCellIndex int
	version       uint64
	listeners     []func(version uint64)
}

// NewTable creates an empty table with the given column names.
func NewTable(names ...string) (*Table, error) {
	t := &Table{}
	for i, name := range names {
		if _, err := t.InsertColumn(name, i); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// AppendRow adds a row of text values in display order. Empty values become
// blank cells; extra values are rejected.
func (t *Table) AppendRow(values ...string) error {
	if len(values) > len(t.columns) {
		return fmt.Errorf("%w: row has %d values for %d columns", domain.ErrStructuralViolation, len(values), len(t.columns))
	}
	row := make([]*domain.Cell, t.nextCellIndex)
	for i, v := range values {
		if v == "" {
			continue
		}
		row[t.columns[i].CellIndex] = domain.TextCell(v)
	}
	t.rows = append(t.rows, row)
	return nil
}

func (t *Table) RowCount() int { return len(t.rows) }

func (t *Table) ColumnCount() int { return len(t.columns) }

// Columns returns a copy of the columns in display order.
func (t *Table) Columns() []domain.Column {
	return append([]domain.Column(nil), t.columns...)
}

// ColumnNames returns the column names in display order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

func (t *Table) ColumnIndexByName(name string) int {
	for i, c := range t.columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func (t *Table) Cell(row, cellIndex int) *domain.Cell {
	if row < 0 || row >= len(t.rows) || cellIndex < 0 || cellIndex >= len(t.rows[row]) {
		return nil
	}
	return t.rows[row][cellIndex]
}

// CellAt returns the cell at a display column, nil when blank.
func (t *Table) CellAt(row, column int) *domain.Cell {
	if column < 0 || column >= len(t.columns) {
		return nil
	}
	return t.Cell(row, t.columns[column].CellIndex)
}

func (t *Table) InsertColumn(name string, index int) (int, error) {
	if index < 0 || index > len(t.columns) {
		return 0, fmt.Errorf("%w: column index %d out of range [0,%d]", domain.ErrStructuralViolation, index, len(t.columns))
	}
	if name == "" {
		return 0, fmt.Errorf("%w: column name is empty", domain.ErrStructuralViolation)
	}
	if t.ColumnIndexByName(name) >= 0 {
		return 0, fmt.Errorf("%w: %q", domain.ErrDuplicateColumn, name)
	}

	slot := t.nextCellIndex
	t.nextCellIndex++
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], nil)
	}

	t.columns = append(t.columns, domain.Column{})
	copy(t.columns[index+1:], t.columns[index:])
	t.columns[index] = domain.Column{Name: name, CellIndex: slot}
	return slot, nil
}

// RemoveColumn drops the column at index and clears its slot. Unused
// trailing slots are reclaimed so an insert followed by a remove leaves no
// trace.
func (t *Table) RemoveColumn(index int) error {
	if index < 0 || index >= len(t.columns) {
		return fmt.Errorf("%w: column index %d out of range [0,%d)", domain.ErrStructuralViolation, index, len(t.columns))
	}
	slot := t.columns[index].CellIndex
	t.columns = append(t.columns[:index], t.columns[index+1:]...)

	used := make(map[int]bool, len(t.columns))
	for _, c := range t.columns {
		used[c.CellIndex] = true
	}
	for t.nextCellIndex > 0 && !used[t.nextCellIndex-1] {
		t.nextCellIndex--
	}
	for i := range t.rows {
		if len(t.rows[i]) > t.nextCellIndex {
			t.rows[i] = t.rows[i][:t.nextCellIndex]
		}
		if slot < len(t.rows[i]) {
			t.rows[i][slot] = nil
		}
	}
	return nil
}

func (t *Table) InsertRow(index int) error {
	if index < 0 || index > len(t.rows) {
		return fmt.Errorf("%w: row index %d out of range [0,%d]", domain.ErrStructuralViolation, index, len(t.rows))
	}
	t.rows = append(t.rows, nil)
	copy(t.rows[index+1:], t.rows[index:])
	t.rows[index] = make([]*domain.Cell, t.nextCellIndex)
	return nil
}

func (t *Table) RemoveRow(index int) error {
	if index < 0 || index >= len(t.rows) {
		return fmt.Errorf("%w: row index %d out of range [0,%d)", domain.ErrStructuralViolation, index, len(t.rows))
	}
	t.rows = append(t.rows[:index], t.rows[index+1:]...)
	return nil
}

func (t *Table) SetCell(row, cellIndex int, cell *domain.Cell) error {
	if row < 0 || row >= len(t.rows) {
		return fmt.Errorf("%w: row index %d out of range [0,%d)", domain.ErrStructuralViolation, row, len(t.rows))
	}
	if cellIndex < 0 || cellIndex >= t.nextCellIndex {
		return fmt.Errorf("%w: cell index %d out of range [0,%d)", domain.ErrStructuralViolation, cellIndex, t.nextCellIndex)
	}
	for len(t.rows[row]) <= cellIndex {
		t.rows[row] = append(t.rows[row], nil)
	}
	t.rows[row][cellIndex] = cell
	return nil
}

// NotifyStructureChanged bumps the structure version and calls listeners.
func (t *Table) NotifyStructureChanged() {
	t.version++
	for _, fn := range t.listeners {
		fn(t.version)
	}
}

// Version counts structure-change notifications.
func (t *Table) Version() uint64 { return t.version }

// OnStructureChanged registers fn to run after every NotifyStructureChanged.
func (t *Table) OnStructureChanged(fn func(version uint64)) {
	t.listeners = append(t.listeners, fn)
}

// Rows returns every row's cells in display order. Cells are shared, not copied.
func (t *Table) Rows() [][]*domain.Cell {
	out := make([][]*domain.Cell, len(t.rows))
	for r := range t.rows {
		row := make([]*domain.Cell, len(t.columns))
		for c, col := range t.columns {
			row[c] = t.Cell(r, col.CellIndex)
		}
		out[r] = row
	}
	return out
}

// Texts returns every row's cell texts in display order; blanks are "".
func (t *Table) Texts() [][]string {
	out := make([][]string, len(t.rows))
	for r, row := range t.Rows() {
		texts := make([]string, len(row))
		for c, cell := range row {
			if cell != nil {
				texts[c] = cell.Text
			}
		}
		out[r] = texts
	}
	return out
}
