package extraction

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"refinener/internal/domain"
	"refinener/internal/materialize"
	"refinener/internal/port"
)

// CompleteFunc receives the change built from a finished run, typically to
// apply it through the history ledger.
type CompleteFunc func(ctx context.Context, description string, change *materialize.Change) error

// ProcessInfo is a snapshot of a process for display.
type ProcessInfo struct {
	ID          uuid.UUID            `json:"id"`
	ProjectID   uuid.UUID            `json:"project_id"`
	Description string               `json:"description"`
	Providers   []string             `json:"providers"`
	Status      domain.ProcessStatus `json:"status"`
	Progress    int                  `json:"progress"`
	Error       string               `json:"error,omitempty"`
	StartedAt   time.Time            `json:"started_at"`
	FinishedAt  *time.Time           `json:"finished_at,omitempty"`
}

// Process is one asynchronous extraction run over a project column.
type Process struct {
	id          uuid.UUID
	projectID   uuid.UUID
	description string
	providers   []string
	startedAt   time.Time

	progress atomic.Int32
	cancel   context.CancelFunc
	done     chan struct{}

	mu         sync.Mutex
	status     domain.ProcessStatus
	err        error
	finishedAt *time.Time
	change     *materialize.Change
}

// Description is the display label for an extraction over column.
func Description(column string) string {
	return fmt.Sprintf("Recognize named entities in column %s", column)
}

// Start runs plan in the background. When the run finishes without being
// canceled, the change is built with its columns right after the source
// column and handed to complete. A canceled run hands nothing over.
func Start(ctx context.Context, orch *Orchestrator, project port.Project, plan *Plan, complete CompleteFunc) *Process {
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p := &Process{
		id:          uuid.New(),
		projectID:   project.ID(),
		description: Description(plan.Column),
		providers:   plan.ProviderNames(),
		startedAt:   time.Now().UTC(),
		cancel:      cancel,
		done:        make(chan struct{}),
		status:      domain.ProcessStatusRunning,
	}
	go p.run(runCtx, orch, plan, complete)
	return p
}

func (p *Process) run(ctx context.Context, orch *Orchestrator, plan *Plan, complete CompleteFunc) {
	defer close(p.done)
	defer p.cancel()

	matrix, err := orch.Execute(ctx, plan, p.setProgress)
	if errors.Is(err, domain.ErrCanceled) {
		p.finish(domain.ProcessStatusCanceled, nil, nil)
		log.Printf("extraction.Process: %s canceled", p.id)
		return
	}
	if err != nil {
		p.finish(domain.ProcessStatusFailed, err, nil)
		return
	}

	change, err := plan.NewChange(matrix)
	if err != nil {
		p.finish(domain.ProcessStatusFailed, err, nil)
		return
	}
	if complete != nil {
		if err := complete(context.WithoutCancel(ctx), p.description, change); err != nil {
			log.Printf("extraction.Process: %s could not apply results: %v", p.id, err)
			p.finish(domain.ProcessStatusFailed, err, change)
			return
		}
	}
	p.finish(domain.ProcessStatusDone, nil, change)
}

// setProgress keeps progress monotonic when rows finish out of order.
func (p *Process) setProgress(percent int) {
	for {
		cur := p.progress.Load()
		if int32(percent) <= cur || p.progress.CompareAndSwap(cur, int32(percent)) {
			return
		}
	}
}

func (p *Process) finish(status domain.ProcessStatus, err error, change *materialize.Change) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now().UTC()
	p.status = status
	p.err = err
	p.change = change
	p.finishedAt = &now
	if status == domain.ProcessStatusDone {
		p.progress.Store(100)
	}
}

func (p *Process) ID() uuid.UUID { return p.id }

func (p *Process) ProjectID() uuid.UUID { return p.projectID }

func (p *Process) Description() string { return p.description }

// Progress returns the completion percentage, 0 to 100.
func (p *Process) Progress() int { return int(p.progress.Load()) }

// Status returns the current status.
func (p *Process) Status() domain.ProcessStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Err returns the failure cause of a failed process.
func (p *Process) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Change returns the change built by a finished run, or nil.
func (p *Process) Change() *materialize.Change {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.change
}

// Cancel asks the run to stop before its next row.
func (p *Process) Cancel() { p.cancel() }

// Done is closed when the process has finished.
func (p *Process) Done() <-chan struct{} { return p.done }

// Wait blocks until the process finishes or ctx ends, and returns the final
// status.
func (p *Process) Wait(ctx context.Context) (domain.ProcessStatus, error) {
	select {
	case <-p.done:
		return p.Status(), p.Err()
	case <-ctx.Done():
		return p.Status(), ctx.Err()
	}
}

// Info snapshots the process.
func (p *Process) Info() ProcessInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	info := ProcessInfo{
		ID:          p.id,
		ProjectID:   p.projectID,
		Description: p.description,
		Providers:   append([]string(nil), p.providers...),
		Status:      p.status,
		Progress:    int(p.progress.Load()),
		StartedAt:   p.startedAt,
		FinishedAt:  p.finishedAt,
	}
	if p.err != nil {
		info.Error = p.err.Error()
	}
	return info
}

// Tracker indexes processes by ID. It is safe for concurrent use.
type Tracker struct {
	mu        sync.RWMutex
	processes map[uuid.UUID]*Process
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{processes: make(map[uuid.UUID]*Process)}
}

// Add registers p.
func (t *Tracker) Add(p *Process) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.processes[p.ID()] = p
}

// Get returns the process by ID.
func (t *Tracker) Get(id uuid.UUID) (*Process, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.processes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrProcessNotFound, id)
	}
	return p, nil
}

// ListByProject returns a project's processes, newest first.
func (t *Tracker) ListByProject(projectID uuid.UUID) []*Process {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []*Process
	for _, p := range t.processes {
		if p.projectID == projectID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].startedAt.After(out[j].startedAt)
	})
	return out
}

// CancelAll cancels every running process. Used on shutdown.
func (t *Tracker) CancelAll() {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, p := range t.processes {
		p.Cancel()
	}
}
