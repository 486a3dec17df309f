package port

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"refinener/internal/domain"
)

// ChangeLogRepository defines the contract for the append-only change log
// backing a project's undo/redo history.
type ChangeLogRepository interface {
	Append(ctx context.Context, entry *domain.HistoryEntry) error
	UpdateState(ctx context.Context, id uuid.UUID, state domain.EntryState, changeData json.RawMessage) error
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.HistoryEntry, error)
}
