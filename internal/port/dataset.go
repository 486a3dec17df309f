package port

import (
	"github.com/google/uuid"

	"refinener/internal/domain"
)

// Dataset is the tabular store mutated by materialization. Implementations
// are not safe for concurrent use; callers go through Project.View or
// Project.Update to get the right lock.
type Dataset interface {
	RowCount() int
	ColumnCount() int
	Columns() []domain.Column
	// ColumnIndexByName returns the display index of the named column, or -1.
	ColumnIndexByName(name string) int
	// Cell returns the cell at row in the given cell slot, nil when blank.
	Cell(row, cellIndex int) *domain.Cell
	// InsertColumn adds an empty column at the display index and returns
	// the cell slot allocated for it.
	InsertColumn(name string, index int) (cellIndex int, err error)
	RemoveColumn(index int) error
	// InsertRow inserts a blank row at index with a blank placeholder for
	// every existing cell slot.
	InsertRow(index int) error
	RemoveRow(index int) error
	SetCell(row, cellIndex int, cell *domain.Cell) error
	// NotifyStructureChanged tells dependent views and indices to recompute.
	NotifyStructureChanged()
	// Version counts NotifyStructureChanged calls.
	Version() uint64
}

// Project owns a dataset and the lock that guards it.
type Project interface {
	ID() uuid.UUID
	Name() string
	// View runs fn with shared access to the dataset.
	View(fn func(ds Dataset) error) error
	// Update runs fn with exclusive access to the dataset.
	Update(fn func(ds Dataset) error) error
}

// RowScope decides which rows take part in an extraction run.
type RowScope interface {
	InScope(row int) bool
}
