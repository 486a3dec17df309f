package dataset

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"refinener/internal/domain"
	"refinener/internal/port"
)

// Project owns a Table and the lock that guards it.
type Project struct {
	id        uuid.UUID
	name      string
	createdAt time.Time

	mu    sync.RWMutex
	table *Table
}

// NewProject wraps t in a new project with a fresh ID.
func NewProject(name string, t *Table) *Project {
	return NewProjectWithID(uuid.New(), name, t)
}

// NewProjectWithID wraps t in a project with a caller-chosen ID, so a file
// reopened later maps to the same change log entries.
func NewProjectWithID(id uuid.UUID, name string, t *Table) *Project {
	return &Project{
		id:        id,
		name:      name,
		createdAt: time.Now().UTC(),
		table:     t,
	}
}

func (p *Project) ID() uuid.UUID { return p.id }

func (p *Project) Name() string { return p.name }

func (p *Project) CreatedAt() time.Time { return p.createdAt }

// View runs fn holding the read lock.
func (p *Project) View(fn func(ds port.Dataset) error) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return fn(p.table)
}

// Update runs fn holding the write lock.
func (p *Project) Update(fn func(ds port.Dataset) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fn(p.table)
}

// Summary is a read-only snapshot of a project.
type Summary struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Columns   []string   `json:"columns"`
	RowCount  int        `json:"row_count"`
	Rows      [][]string `json:"rows,omitempty"`
	Version   uint64     `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
}

// Summarize snapshots the project; previewRows bounds the rows included.
func (p *Project) Summarize(previewRows int) Summary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s := Summary{
		ID:        p.id,
		Name:      p.name,
		Columns:   p.table.ColumnNames(),
		RowCount:  p.table.RowCount(),
		Version:   p.table.Version(),
		CreatedAt: p.createdAt,
	}
	if previewRows > 0 {
		texts := p.table.Texts()
		if len(texts) > previewRows {
			texts = texts[:previewRows]
		}
		s.Rows = texts
	}
	return s
}

// Store is an in-memory registry of projects.
type Store struct {
	mu       sync.RWMutex
	projects map[uuid.UUID]*Project
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{projects: make(map[uuid.UUID]*Project)}
}

// Add registers a project.
func (s *Store) Add(p *Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID()] = p
}

// Get returns the project by ID.
func (s *Store) Get(id uuid.UUID) (*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrProjectNotFound, id)
	}
	return p, nil
}

// Len reports how many projects are loaded.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.projects)
}

// List returns every project, oldest first.
func (s *Store) List() []*Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].createdAt.Before(out[j].createdAt)
	})
	return out
}
