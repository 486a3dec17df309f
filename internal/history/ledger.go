// Package history keeps a project's undo/redo ledger of materialized
// changes, backed by the change log.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"refinener/internal/domain"
	"refinener/internal/materialize"
	"refinener/internal/port"
)

type entry struct {
	meta   domain.HistoryEntry
	change *materialize.Change
}

// Ledger is the linear undo/redo history of one project. Entries before the
// cursor are applied; entries from the cursor on are undone and can be
// redone until a new change is added.
type Ledger struct {
	project port.Project
	repo    port.ChangeLogRepository

	mu      sync.Mutex
	entries []*entry
	cursor  int
	nextSeq int
}

// NewLedger creates an empty ledger for project.
func NewLedger(project port.Project, repo port.ChangeLogRepository) *Ledger {
	return &Ledger{project: project, repo: repo, nextSeq: 1}
}

// Restore rebuilds a ledger from the change log without re-running any
// extraction. The dataset is expected to already reflect the applied
// entries.
func Restore(ctx context.Context, project port.Project, repo port.ChangeLogRepository) (*Ledger, error) {
	rows, err := repo.ListByProject(ctx, project.ID())
	if err != nil {
		return nil, err
	}

	l := NewLedger(project, repo)
	undoneSeen := false
	for _, row := range rows {
		if row.Seq >= l.nextSeq {
			l.nextSeq = row.Seq + 1
		}
		if row.State == domain.EntryStateDiscarded {
			continue
		}
		change, err := materialize.Decode(row.ChangeData)
		if err != nil {
			return nil, fmt.Errorf("history.Restore: entry %d: %w", row.Seq, err)
		}
		applied := row.State == domain.EntryStateApplied
		if applied != (change.State() == materialize.Applied) {
			return nil, fmt.Errorf("history.Restore: entry %d: %w: state %s but change is %s",
				row.Seq, domain.ErrMalformedChange, row.State, change.State())
		}
		if applied && undoneSeen {
			return nil, fmt.Errorf("history.Restore: entry %d: %w: applied after an undone entry",
				row.Seq, domain.ErrMalformedChange)
		}
		if applied {
			l.cursor++
		} else {
			undoneSeen = true
		}
		l.entries = append(l.entries, &entry{meta: row, change: change})
	}
	log.Printf("history.Ledger: restored %d entries for project %s (%d applied)", len(l.entries), project.ID(), l.cursor)
	return l, nil
}

// Add applies change under the project's exclusive lock, drops any redo
// tail, and records the change.
func (l *Ledger) Add(ctx context.Context, description string, change *materialize.Change) (*domain.HistoryEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.project.Update(change.Apply); err != nil {
		return nil, fmt.Errorf("history.Ledger.Add: %w", err)
	}

	data, err := json.Marshal(change)
	if err != nil {
		l.rollback(change)
		return nil, fmt.Errorf("history.Ledger.Add: encoding change: %w", err)
	}
	now := time.Now().UTC()
	e := &entry{
		meta: domain.HistoryEntry{
			ID:          uuid.New(),
			ProjectID:   l.project.ID(),
			Seq:         l.nextSeq,
			Description: description,
			State:       domain.EntryStateApplied,
			ChangeData:  data,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		change: change,
	}
	if err := l.repo.Append(ctx, &e.meta); err != nil {
		l.rollback(change)
		return nil, fmt.Errorf("history.Ledger.Add: %w", err)
	}

	for _, dropped := range l.entries[l.cursor:] {
		if err := l.repo.UpdateState(ctx, dropped.meta.ID, domain.EntryStateDiscarded, nil); err != nil {
			log.Printf("history.Ledger: marking entry %d discarded: %v", dropped.meta.Seq, err)
		}
	}
	l.entries = append(l.entries[:l.cursor], e)
	l.cursor++
	l.nextSeq++

	meta := e.meta
	return &meta, nil
}

func (l *Ledger) rollback(change *materialize.Change) {
	if err := l.project.Update(change.Revert); err != nil {
		log.Printf("history.Ledger: rolling back unrecorded change: %v", err)
	}
}

// Undo reverts the most recent applied change.
func (l *Ledger) Undo(ctx context.Context) (*domain.HistoryEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cursor == 0 {
		return nil, domain.ErrNothingToUndo
	}
	e := l.entries[l.cursor-1]
	if err := l.project.Update(e.change.Revert); err != nil {
		return nil, fmt.Errorf("history.Ledger.Undo: %w", err)
	}
	if err := l.persist(ctx, e, domain.EntryStateUndone); err != nil {
		l.reapply(e)
		return nil, err
	}
	l.cursor--
	meta := e.meta
	return &meta, nil
}

// Redo re-applies the next undone change.
func (l *Ledger) Redo(ctx context.Context) (*domain.HistoryEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cursor == len(l.entries) {
		return nil, domain.ErrNothingToRedo
	}
	e := l.entries[l.cursor]
	if err := l.project.Update(e.change.Apply); err != nil {
		return nil, fmt.Errorf("history.Ledger.Redo: %w", err)
	}
	if err := l.persist(ctx, e, domain.EntryStateApplied); err != nil {
		if rerr := l.project.Update(e.change.Revert); rerr != nil {
			log.Printf("history.Ledger: reverting unrecorded redo: %v", rerr)
		}
		return nil, err
	}
	l.cursor++
	meta := e.meta
	return &meta, nil
}

func (l *Ledger) reapply(e *entry) {
	if err := l.project.Update(e.change.Apply); err != nil {
		log.Printf("history.Ledger: re-applying unrecorded undo: %v", err)
	}
}

// persist stores the entry's new state with the change's current form.
func (l *Ledger) persist(ctx context.Context, e *entry, state domain.EntryState) error {
	data, err := json.Marshal(e.change)
	if err != nil {
		return fmt.Errorf("history.Ledger: encoding change: %w", err)
	}
	if err := l.repo.UpdateState(ctx, e.meta.ID, state, data); err != nil {
		return fmt.Errorf("history.Ledger: %w", err)
	}
	e.meta.State = state
	e.meta.ChangeData = data
	e.meta.UpdatedAt = time.Now().UTC()
	return nil
}

// Entries lists the live entries, oldest first.
func (l *Ledger) Entries() []domain.HistoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.HistoryEntry, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.meta
	}
	return out
}

// CanUndo reports whether an applied entry exists.
func (l *Ledger) CanUndo() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cursor > 0
}

// CanRedo reports whether an undone entry exists.
func (l *Ledger) CanRedo() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cursor < len(l.entries)
}
