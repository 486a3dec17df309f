package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Disambiguation is a candidate real-world referent for an extracted entity.
type Disambiguation struct {
	Label string   `json:"label"`
	URI   string   `json:"uri"`
	Score *float64 `json:"score,omitempty"`
}

// NewDisambiguation creates a candidate with a confidence score in [0,1].
// Scores outside that range are clamped.
func NewDisambiguation(label, uri string, score float64) Disambiguation {
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return Disambiguation{Label: label, URI: uri, Score: &score}
}

// NamedEntity is an extracted label with its ordered disambiguation candidates.
type NamedEntity struct {
	Label           string           `json:"label"`
	Disambiguations []Disambiguation `json:"disambiguations,omitempty"`
}

// NewNamedEntity creates an entity. The candidate slice is copied.
func NewNamedEntity(label string, candidates ...Disambiguation) NamedEntity {
	var ds []Disambiguation
	if len(candidates) > 0 {
		ds = make([]Disambiguation, len(candidates))
		copy(ds, candidates)
	}
	return NamedEntity{Label: label, Disambiguations: ds}
}

// NewLinkedEntity creates an entity whose label is also its single
// candidate's label, without a score.
func NewLinkedEntity(label string, uris ...string) NamedEntity {
	ds := make([]Disambiguation, 0, len(uris))
	for _, uri := range uris {
		if uri == "" {
			continue
		}
		ds = append(ds, Disambiguation{Label: label, URI: uri})
	}
	return NewNamedEntity(label, ds...)
}

// URIs returns the candidate URIs in order.
func (e NamedEntity) URIs() []string {
	uris := make([]string, 0, len(e.Disambiguations))
	for _, d := range e.Disambiguations {
		uris = append(uris, d.URI)
	}
	return uris
}

// Cell builds the dataset cell that represents this entity.
func (e NamedEntity) Cell() *Cell {
	var candidates []Disambiguation
	if len(e.Disambiguations) > 0 {
		candidates = make([]Disambiguation, len(e.Disambiguations))
		copy(candidates, e.Disambiguations)
	}
	return &Cell{Text: e.Label, Candidates: candidates}
}

func (e NamedEntity) clone() NamedEntity {
	return NewNamedEntity(e.Label, e.Disambiguations...)
}

type entityJSON struct {
	Label           string           `json:"label"`
	URIs            []string         `json:"uris"`
	Disambiguations []Disambiguation `json:"disambiguations,omitempty"`
}

// MarshalJSON writes the label, the candidate URIs and, when any candidate
// carries more than a URI, the full candidate list.
func (e NamedEntity) MarshalJSON() ([]byte, error) {
	out := entityJSON{Label: e.Label, URIs: e.URIs()}
	for _, d := range e.Disambiguations {
		if d.Score != nil || d.Label != e.Label || d.URI == "" {
			out.Disambiguations = e.Disambiguations
			break
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts either a bare URI list or full candidates. When both
// are present the candidates win.
func (e *NamedEntity) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var raw entityJSON
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("%w: entity: %v", ErrMalformedChange, err)
	}
	if len(raw.Disambiguations) > 0 {
		*e = NewNamedEntity(raw.Label, raw.Disambiguations...)
		return nil
	}
	*e = NewLinkedEntity(raw.Label, raw.URIs...)
	return nil
}
