package domain

import (
	"encoding/json"
	"fmt"
)

// ResultMatrix is the rows × providers grid of outcomes for one extraction
// run, indexed by original row then by provider. New matrices start with an
// empty success in every slot.
type ResultMatrix struct {
	rows      [][]ExtractionOutcome
	providers int
}

// NewResultMatrix creates a matrix for rowCount rows and providerCount providers.
func NewResultMatrix(rowCount, providerCount int) *ResultMatrix {
	rows := make([][]ExtractionOutcome, rowCount)
	for i := range rows {
		rows[i] = make([]ExtractionOutcome, providerCount)
	}
	return &ResultMatrix{rows: rows, providers: providerCount}
}

// Rows returns the number of original rows.
func (m *ResultMatrix) Rows() int {
	return len(m.rows)
}

// Providers returns the number of providers per row.
func (m *ResultMatrix) Providers() int {
	return m.providers
}

// At returns the outcome of provider p on row r.
func (m *ResultMatrix) At(r, p int) ExtractionOutcome {
	return m.rows[r][p]
}

// Set stores the outcome of provider p on row r. Only the builder of the
// matrix calls Set, and each (r, p) slot is written by a single goroutine.
func (m *ResultMatrix) Set(r, p int, o ExtractionOutcome) {
	m.rows[r][p] = o
}

// SetRow stores all provider outcomes for row r.
func (m *ResultMatrix) SetRow(r int, outcomes []ExtractionOutcome) {
	copy(m.rows[r], outcomes)
}

// RowSpan returns the number of physical rows original row r occupies once
// materialized: the maximum span over its providers, and at least one.
func (m *ResultMatrix) RowSpan(r int) int {
	span := 1
	for _, o := range m.rows[r] {
		if s := o.RowSpan(); s > span {
			span = s
		}
	}
	return span
}

// Failures counts failure outcomes in the whole matrix.
func (m *ResultMatrix) Failures() int {
	n := 0
	for _, row := range m.rows {
		for _, o := range row {
			if o.HasError() {
				n++
			}
		}
	}
	return n
}

// MarshalJSON encodes the matrix as an array of rows.
func (m *ResultMatrix) MarshalJSON() ([]byte, error) {
	rows := m.rows
	if rows == nil {
		rows = [][]ExtractionOutcome{}
	}
	return json.Marshal(rows)
}

// UnmarshalJSON decodes an array of rows and requires every row to have the
// same number of providers.
func (m *ResultMatrix) UnmarshalJSON(data []byte) error {
	var rows [][]ExtractionOutcome
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("%w: results: %v", ErrMalformedChange, err)
	}
	if rows == nil {
		return fmt.Errorf("%w: results missing", ErrMalformedChange)
	}
	providers := 0
	for i, row := range rows {
		if i == 0 {
			providers = len(row)
			continue
		}
		if len(row) != providers {
			return fmt.Errorf("%w: results row %d has %d outcomes, expected %d", ErrMalformedChange, i, len(row), providers)
		}
	}
	m.rows = rows
	m.providers = providers
	return nil
}
