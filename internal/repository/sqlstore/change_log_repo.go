package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"refinener/internal/domain"
	"refinener/internal/port"
)

type changeLogRepo struct {
	db *sqlx.DB
}

// NewChangeLogRepo creates a sqlx-backed ChangeLogRepository. Queries are
// rebound for the connection's driver.
func NewChangeLogRepo(db *sqlx.DB) port.ChangeLogRepository {
	return &changeLogRepo{db: db}
}

func (r *changeLogRepo) Append(ctx context.Context, entry *domain.HistoryEntry) error {
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO change_log (id, project_id, seq, description, state, change_data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		entry.ID, entry.ProjectID, entry.Seq, entry.Description, entry.State,
		[]byte(entry.ChangeData), entry.CreatedAt, entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("changeLogRepo.Append: %w", err)
	}
	return nil
}

func (r *changeLogRepo) UpdateState(ctx context.Context, id uuid.UUID, state domain.EntryState, changeData json.RawMessage) error {
	var (
		query string
		args  []interface{}
	)
	now := time.Now().UTC()
	if len(changeData) == 0 {
		query = `UPDATE change_log SET state = ?, updated_at = ? WHERE id = ?`
		args = []interface{}{state, now, id}
	} else {
		query = `UPDATE change_log SET state = ?, change_data = ?, updated_at = ? WHERE id = ?`
		args = []interface{}{state, []byte(changeData), now, id}
	}

	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("changeLogRepo.UpdateState: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("changeLogRepo.UpdateState rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("changeLogRepo.UpdateState: entry %s not found", id)
	}
	return nil
}

func (r *changeLogRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.HistoryEntry, error) {
	var entries []domain.HistoryEntry
	err := r.db.SelectContext(ctx, &entries, r.db.Rebind(
		`SELECT id, project_id, seq, description, state, change_data, created_at, updated_at
		 FROM change_log WHERE project_id = ? ORDER BY seq ASC`),
		projectID)
	if err != nil {
		return nil, fmt.Errorf("changeLogRepo.ListByProject: %w", err)
	}
	return entries, nil
}
