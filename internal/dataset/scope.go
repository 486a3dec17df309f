package dataset

import (
	"fmt"
	"strings"

	"refinener/internal/domain"
	"refinener/internal/port"
)

// AllRows puts every row in scope.
type AllRows struct{}

func (AllRows) InScope(int) bool { return true }

// RowSet puts an explicit set of rows in scope.
type RowSet map[int]bool

// NewRowSet creates a RowSet from row indices.
func NewRowSet(rows ...int) RowSet {
	s := make(RowSet, len(rows))
	for _, r := range rows {
		s[r] = true
	}
	return s
}

func (s RowSet) InScope(row int) bool { return s[row] }

// BuildScope evaluates cfg against ds and returns the matching rows. An
// empty config selects every row. Facets are combined with AND.
func BuildScope(ds port.Dataset, cfg domain.FilterConfig) (port.RowScope, error) {
	if len(cfg.Facets) == 0 {
		return AllRows{}, nil
	}

	type facetSlot struct {
		facet domain.Facet
		slot  int
	}
	facets := make([]facetSlot, 0, len(cfg.Facets))
	columns := ds.Columns()
	for _, f := range cfg.Facets {
		idx := ds.ColumnIndexByName(f.Column)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownColumn, f.Column)
		}
		mode := f.Mode
		if mode == "" {
			mode = domain.FilterModeText
		}
		if !domain.ValidFilterModes[mode] {
			return nil, fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidScope, f.Mode)
		}
		f.Mode = mode
		if mode == domain.FilterModeText && f.Query == "" {
			return nil, fmt.Errorf("%w: text facet on %q has no query", domain.ErrInvalidScope, f.Column)
		}
		facets = append(facets, facetSlot{facet: f, slot: columns[idx].CellIndex})
	}

	set := RowSet{}
	for r := 0; r < ds.RowCount(); r++ {
		match := true
		for _, fs := range facets {
			if !matches(fs.facet, ds.Cell(r, fs.slot)) {
				match = false
				break
			}
		}
		if match {
			set[r] = true
		}
	}
	return set, nil
}

func matches(f domain.Facet, cell *domain.Cell) bool {
	text := ""
	if cell != nil {
		text = cell.Text
	}
	var ok bool
	switch f.Mode {
	case domain.FilterModeBlank:
		ok = strings.TrimSpace(text) == ""
	case domain.FilterModeNonBlank:
		ok = strings.TrimSpace(text) != ""
	default:
		if f.CaseSensitive {
			ok = strings.Contains(text, f.Query)
		} else {
			ok = strings.Contains(strings.ToLower(text), strings.ToLower(f.Query))
		}
	}
	return ok != f.Invert
}
