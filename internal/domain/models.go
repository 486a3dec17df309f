package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Cell is a value in a dataset. A nil *Cell is a blank cell.
type Cell struct {
	Text       string           `json:"text"`
	IsError    bool             `json:"is_error,omitempty"`
	Candidates []Disambiguation `json:"candidates,omitempty"`
}

// TextCell creates a plain text cell.
func TextCell(text string) *Cell {
	return &Cell{Text: text}
}

// ErrorCell creates the error marker written for a failed extraction.
func ErrorCell(message string) *Cell {
	if message == "" {
		message = DefaultFailureMessage
	}
	return &Cell{Text: message, IsError: true}
}

// Column is a display column and the stable cell slot its values live in.
type Column struct {
	Name      string `json:"name"`
	CellIndex int    `json:"cell_index"`
}

// HistoryEntry is one persisted change in a project's change log.
type HistoryEntry struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	ProjectID   uuid.UUID       `db:"project_id" json:"project_id"`
	Seq         int             `db:"seq" json:"seq"`
	Description string          `db:"description" json:"description"`
	State       EntryState      `db:"state" json:"state"`
	ChangeData  json.RawMessage `db:"change_data" json:"-"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// ProviderInfo describes a configured extraction provider.
type ProviderInfo struct {
	Name            string            `json:"name"`
	Kind            string            `json:"kind"`
	Configured      bool              `json:"configured"`
	SettingNames    []string          `json:"setting_names"`
	DefaultSettings map[string]string `json:"default_settings"`
}

// FilterConfig selects the rows in scope for an extraction run. Facets are
// combined with AND; an empty config selects every row.
type FilterConfig struct {
	Facets []Facet `json:"facets"`
}

// Facet matches rows on one column.
type Facet struct {
	Column        string     `json:"column"`
	Mode          FilterMode `json:"mode"`
	Query         string     `json:"query,omitempty"`
	CaseSensitive bool       `json:"case_sensitive,omitempty"`
	Invert        bool       `json:"invert,omitempty"`
}
