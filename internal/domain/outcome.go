package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DefaultFailureMessage replaces empty provider error messages.
const DefaultFailureMessage = "extraction failed"

// ExtractionOutcome is the result of one provider call on one row: either a
// list of entities or an error message, never both. The zero value is an
// empty success.
type ExtractionOutcome struct {
	entities []NamedEntity
	errMsg   string
	failed   bool
}

// Success creates a successful outcome. The entities are copied.
func Success(entities ...NamedEntity) ExtractionOutcome {
	if len(entities) == 0 {
		return ExtractionOutcome{}
	}
	cp := make([]NamedEntity, len(entities))
	for i := range entities {
		cp[i] = entities[i].clone()
	}
	return ExtractionOutcome{entities: cp}
}

// Failure creates a failed outcome. An empty message is replaced with
// DefaultFailureMessage so failures are always displayable.
func Failure(message string) ExtractionOutcome {
	if message == "" {
		message = DefaultFailureMessage
	}
	return ExtractionOutcome{errMsg: message, failed: true}
}

// HasError reports whether this is a failure outcome.
func (o ExtractionOutcome) HasError() bool {
	return o.failed
}

// ErrorMessage returns the failure message, or "" for a success.
func (o ExtractionOutcome) ErrorMessage() string {
	return o.errMsg
}

// Entities returns a copy of the extracted entities. Failures have none.
func (o ExtractionOutcome) Entities() []NamedEntity {
	if len(o.entities) == 0 {
		return nil
	}
	cp := make([]NamedEntity, len(o.entities))
	for i := range o.entities {
		cp[i] = o.entities[i].clone()
	}
	return cp
}

// EntityCount returns the number of extracted entities.
func (o ExtractionOutcome) EntityCount() int {
	return len(o.entities)
}

// RowSpan is the number of physical rows this outcome occupies once
// materialized: one for an error, max(k, 1) for a success with k entities.
func (o ExtractionOutcome) RowSpan() int {
	if o.failed || len(o.entities) == 0 {
		return 1
	}
	return len(o.entities)
}

type outcomeJSON struct {
	Entities *[]NamedEntity `json:"entities,omitempty"`
	Error    *string        `json:"error,omitempty"`
}

// MarshalJSON encodes a success as {"entities":[...]} and a failure as {"error":"..."}.
func (o ExtractionOutcome) MarshalJSON() ([]byte, error) {
	if o.failed {
		msg := o.errMsg
		return json.Marshal(outcomeJSON{Error: &msg})
	}
	entities := o.entities
	if entities == nil {
		entities = []NamedEntity{}
	}
	return json.Marshal(outcomeJSON{Entities: &entities})
}

// UnmarshalJSON decodes either variant and rejects objects carrying both or neither.
func (o *ExtractionOutcome) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var raw outcomeJSON
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("%w: outcome: %v", ErrMalformedChange, err)
	}
	switch {
	case raw.Entities != nil && raw.Error != nil:
		return fmt.Errorf("%w: outcome has both entities and error", ErrMalformedChange)
	case raw.Error != nil:
		*o = Failure(*raw.Error)
	case raw.Entities != nil:
		for i, e := range *raw.Entities {
			if e.Label == "" {
				return fmt.Errorf("%w: entity %d has no label", ErrMalformedChange, i)
			}
		}
		*o = Success(*raw.Entities...)
	default:
		return fmt.Errorf("%w: outcome has neither entities nor error", ErrMalformedChange)
	}
	return nil
}
