// Package materialize turns a result matrix into new dataset columns and
// rows, and reverts that mutation exactly.
package materialize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"

	"refinener/internal/domain"
	"refinener/internal/metrics"
	"refinener/internal/port"
)

// State is the position of a Change in its apply/revert cycle.
type State int

const (
	Unapplied State = iota
	Applied
)

func (s State) String() string {
	if s == Applied {
		return "applied"
	}
	return "unapplied"
}

// Change is the reversible mutation produced by one extraction run. It is
// not safe for concurrent use; Apply and Revert must run under the
// project's exclusive lock.
type Change struct {
	baseColumnIndex int
	providerNames   []string
	results         *domain.ResultMatrix
	addedRowIDs     []int
	state           State

	pinned        bool
	pinnedVersion uint64
}

// NewChange creates an unapplied change. The matrix is owned by the change
// from here on.
func NewChange(baseColumnIndex int, providerNames []string, results *domain.ResultMatrix) (*Change, error) {
	c := &Change{
		baseColumnIndex: baseColumnIndex,
		providerNames:   append([]string(nil), providerNames...),
		results:         results,
	}
	if err := c.validateShape(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Change) validateShape() error {
	if c.results == nil {
		return fmt.Errorf("%w: no result matrix", domain.ErrMalformedChange)
	}
	if c.baseColumnIndex < 0 {
		return fmt.Errorf("%w: negative base column index %d", domain.ErrMalformedChange, c.baseColumnIndex)
	}
	if len(c.providerNames) == 0 {
		return fmt.Errorf("%w: no provider names", domain.ErrMalformedChange)
	}
	seen := make(map[string]bool, len(c.providerNames))
	for _, name := range c.providerNames {
		if name == "" {
			return fmt.Errorf("%w: empty provider name", domain.ErrMalformedChange)
		}
		if seen[name] {
			return fmt.Errorf("%w: provider %q listed twice", domain.ErrMalformedChange, name)
		}
		seen[name] = true
	}
	if c.results.Rows() > 0 && c.results.Providers() != len(c.providerNames) {
		return fmt.Errorf("%w: matrix has %d providers, change names %d",
			domain.ErrMalformedChange, c.results.Providers(), len(c.providerNames))
	}
	return nil
}

// RequireVersion makes the next Apply fail unless the dataset structure is
// still at version v. The pin is dropped once an Apply succeeds and is not
// serialized.
func (c *Change) RequireVersion(v uint64) {
	c.pinned = true
	c.pinnedVersion = v
}

// State reports whether the change is currently applied.
func (c *Change) State() State { return c.state }

// BaseColumnIndex is the display index of the first inserted column.
func (c *Change) BaseColumnIndex() int { return c.baseColumnIndex }

// ProviderNames returns the inserted column names in order.
func (c *Change) ProviderNames() []string { return append([]string(nil), c.providerNames...) }

// Results returns the result matrix. It must not be modified.
func (c *Change) Results() *domain.ResultMatrix { return c.results }

// AddedRowIDs returns the rows inserted by the last Apply, ascending.
func (c *Change) AddedRowIDs() []int { return append([]int(nil), c.addedRowIDs...) }

// Description is the history label of the change.
func (c *Change) Description() string {
	return fmt.Sprintf("Add %d named-entity column(s) from %v", len(c.providerNames), c.providerNames)
}

// Apply inserts one column per provider at the base index, expands each
// original row to its row span, and writes entity and error cells. On any
// failure the dataset is restored and the change stays unapplied.
func (c *Change) Apply(ds port.Dataset) (err error) {
	defer func() { metrics.Default().IncChangeOp("apply", err == nil) }()

	if c.state != Unapplied {
		return fmt.Errorf("%w: apply on a change that is %s", domain.ErrInvalidChangeState, c.state)
	}
	if c.pinned && ds.Version() != c.pinnedVersion {
		return fmt.Errorf("%w: dataset structure changed since extraction started (version %d, expected %d)",
			domain.ErrStructuralViolation, ds.Version(), c.pinnedVersion)
	}
	if rows := ds.RowCount(); rows != c.results.Rows() {
		return fmt.Errorf("%w: dataset has %d rows, change was built for %d",
			domain.ErrStructuralViolation, rows, c.results.Rows())
	}
	if c.baseColumnIndex > ds.ColumnCount() {
		return fmt.Errorf("%w: base column index %d beyond %d columns",
			domain.ErrStructuralViolation, c.baseColumnIndex, ds.ColumnCount())
	}
	for _, name := range c.providerNames {
		if ds.ColumnIndexByName(name) >= 0 {
			return fmt.Errorf("%w: %q", domain.ErrDuplicateColumn, name)
		}
	}

	slots := make([]int, 0, len(c.providerNames))
	var added []int
	defer func() {
		if err != nil {
			c.rollback(ds, len(slots), added)
		}
	}()

	for i, name := range c.providerNames {
		slot, insErr := ds.InsertColumn(name, c.baseColumnIndex+i)
		if insErr != nil {
			return fmt.Errorf("materialize.Change.Apply: inserting column %q: %w", name, insErr)
		}
		slots = append(slots, slot)
	}

	cursor := 0
	for r := 0; r < c.results.Rows(); r++ {
		span := c.results.RowSpan(r)
		for i := 1; i < span; i++ {
			if insErr := ds.InsertRow(cursor + i); insErr != nil {
				return fmt.Errorf("materialize.Change.Apply: expanding row %d: %w", r, insErr)
			}
			added = append(added, cursor+i)
		}

		for p, slot := range slots {
			outcome := c.results.At(r, p)
			if outcome.HasError() {
				if setErr := ds.SetCell(cursor, slot, domain.ErrorCell(outcome.ErrorMessage())); setErr != nil {
					return fmt.Errorf("materialize.Change.Apply: row %d: %w", r, setErr)
				}
				continue
			}
			for i, entity := range outcome.Entities() {
				if setErr := ds.SetCell(cursor+i, slot, entity.Cell()); setErr != nil {
					return fmt.Errorf("materialize.Change.Apply: row %d entity %d: %w", r, i, setErr)
				}
			}
		}
		cursor += span
	}

	ds.NotifyStructureChanged()
	c.addedRowIDs = added
	c.state = Applied
	c.pinned = false
	return nil
}

// rollback undoes a partial Apply: inserted rows from the bottom up, then
// the first n inserted columns from the right.
func (c *Change) rollback(ds port.Dataset, columns int, added []int) {
	for i := len(added) - 1; i >= 0; i-- {
		if err := ds.RemoveRow(added[i]); err != nil {
			log.Printf("materialize.Change: rollback removing row %d: %v", added[i], err)
		}
	}
	for i := columns - 1; i >= 0; i-- {
		if err := ds.RemoveColumn(c.baseColumnIndex + i); err != nil {
			log.Printf("materialize.Change: rollback removing column %d: %v", c.baseColumnIndex+i, err)
		}
	}
	if len(added) > 0 || columns > 0 {
		ds.NotifyStructureChanged()
	}
}

// Revert deletes the rows and columns added by Apply. Every index is
// checked before anything is removed, so a change that does not match the
// dataset fails without touching it.
func (c *Change) Revert(ds port.Dataset) (err error) {
	defer func() { metrics.Default().IncChangeOp("revert", err == nil) }()

	if c.state != Applied {
		return fmt.Errorf("%w: revert on a change that is %s", domain.ErrInvalidChangeState, c.state)
	}
	if err := c.checkRevertable(ds); err != nil {
		return err
	}

	for i := len(c.addedRowIDs) - 1; i >= 0; i-- {
		if err := ds.RemoveRow(c.addedRowIDs[i]); err != nil {
			return fmt.Errorf("%w: removing row %d: %v", domain.ErrStructuralViolation, c.addedRowIDs[i], err)
		}
	}
	c.addedRowIDs = nil

	for i := len(c.providerNames) - 1; i >= 0; i-- {
		if err := ds.RemoveColumn(c.baseColumnIndex + i); err != nil {
			return fmt.Errorf("%w: removing column %q: %v", domain.ErrStructuralViolation, c.providerNames[i], err)
		}
	}

	ds.NotifyStructureChanged()
	c.state = Unapplied
	return nil
}

func (c *Change) checkRevertable(ds port.Dataset) error {
	rows := ds.RowCount()
	if want := c.results.Rows() + len(c.addedRowIDs); rows != want {
		return fmt.Errorf("%w: dataset has %d rows, applied change expects %d",
			domain.ErrStructuralViolation, rows, want)
	}
	for i, id := range c.addedRowIDs {
		if id < 1 || id >= rows {
			return fmt.Errorf("%w: added row %d out of range [1,%d)", domain.ErrStructuralViolation, id, rows)
		}
		if i > 0 && id <= c.addedRowIDs[i-1] {
			return fmt.Errorf("%w: added rows not strictly ascending at %d", domain.ErrStructuralViolation, i)
		}
	}
	columns := ds.Columns()
	if c.baseColumnIndex+len(c.providerNames) > len(columns) {
		return fmt.Errorf("%w: dataset has %d columns, change needs %d",
			domain.ErrStructuralViolation, len(columns), c.baseColumnIndex+len(c.providerNames))
	}
	for i, name := range c.providerNames {
		if got := columns[c.baseColumnIndex+i].Name; got != name {
			return fmt.Errorf("%w: column %d is %q, expected %q",
				domain.ErrStructuralViolation, c.baseColumnIndex+i, got, name)
		}
	}
	return nil
}

// changeJSON is the persisted form of a Change.
type changeJSON struct {
	BaseColumnIndex *int                 `json:"baseColumnIndex"`
	ProviderNames   []string             `json:"providerNames"`
	Results         *domain.ResultMatrix `json:"results"`
	AddedRowIDs     []int                `json:"addedRowIds"`
	Applied         bool                 `json:"applied"`
}

// MarshalJSON serializes the change, including its state.
func (c *Change) MarshalJSON() ([]byte, error) {
	base := c.baseColumnIndex
	added := c.addedRowIDs
	if added == nil {
		added = []int{}
	}
	return json.Marshal(changeJSON{
		BaseColumnIndex: &base,
		ProviderNames:   c.providerNames,
		Results:         c.results,
		AddedRowIDs:     added,
		Applied:         c.state == Applied,
	})
}

// Decode reconstructs a change from its serialized form. Missing or
// inconsistent fields fail with ErrMalformedChange.
func Decode(data []byte) (*Change, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var raw changeJSON
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedChange, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data", domain.ErrMalformedChange)
	}

	switch {
	case raw.BaseColumnIndex == nil:
		return nil, fmt.Errorf("%w: baseColumnIndex missing", domain.ErrMalformedChange)
	case raw.ProviderNames == nil:
		return nil, fmt.Errorf("%w: providerNames missing", domain.ErrMalformedChange)
	case raw.Results == nil:
		return nil, fmt.Errorf("%w: results missing", domain.ErrMalformedChange)
	case raw.AddedRowIDs == nil:
		return nil, fmt.Errorf("%w: addedRowIds missing", domain.ErrMalformedChange)
	}

	c := &Change{
		baseColumnIndex: *raw.BaseColumnIndex,
		providerNames:   raw.ProviderNames,
		results:         raw.Results,
	}
	if err := c.validateShape(); err != nil {
		return nil, err
	}

	if !raw.Applied {
		if len(raw.AddedRowIDs) > 0 {
			return nil, fmt.Errorf("%w: unapplied change lists added rows", domain.ErrMalformedChange)
		}
		return c, nil
	}

	expected := expectedAddedRows(c.results)
	if len(raw.AddedRowIDs) != len(expected) {
		return nil, fmt.Errorf("%w: %d added rows recorded, results imply %d",
			domain.ErrMalformedChange, len(raw.AddedRowIDs), len(expected))
	}
	for i, id := range raw.AddedRowIDs {
		if id != expected[i] {
			return nil, fmt.Errorf("%w: added row %d is %d, results place it at %d",
				domain.ErrMalformedChange, i, id, expected[i])
		}
	}
	c.addedRowIDs = raw.AddedRowIDs
	c.state = Applied
	return c, nil
}

// expectedAddedRows is the added-row list Apply produces for results: the
// continuation rows of every original row, in final row coordinates.
func expectedAddedRows(results *domain.ResultMatrix) []int {
	var rows []int
	cursor := 0
	for r := 0; r < results.Rows(); r++ {
		span := results.RowSpan(r)
		for i := 1; i < span; i++ {
			rows = append(rows, cursor+i)
		}
		cursor += span
	}
	return rows
}
