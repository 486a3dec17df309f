package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"refinener/internal/config"
	"refinener/internal/csvexport"
	"refinener/internal/dataset"
	"refinener/internal/domain"
	"refinener/internal/history"
	"refinener/internal/port"
)

// previewRows bounds the rows returned with a project summary.
const previewRows = 50

// CreateProjectInput holds the data needed to import a dataset.
type CreateProjectInput struct {
	Name     string
	Filename string
	Body     io.Reader
}

// ExportResult describes a published export.
type ExportResult struct {
	Key      string `json:"key"`
	Location string `json:"location"`
	URL      string `json:"url"`
}

// ProjectService manages imported datasets and their undo history.
type ProjectService interface {
	Create(ctx context.Context, input CreateProjectInput) (*dataset.Summary, error)
	Get(ctx context.Context, id uuid.UUID) (*dataset.Summary, error)
	List(ctx context.Context) []dataset.Summary
	Open(ctx context.Context, id uuid.UUID) (*dataset.Project, *history.Ledger, error)
	History(ctx context.Context, id uuid.UUID) ([]domain.HistoryEntry, error)
	Undo(ctx context.Context, id uuid.UUID) (*domain.HistoryEntry, error)
	Redo(ctx context.Context, id uuid.UUID) (*domain.HistoryEntry, error)
	Export(ctx context.Context, id uuid.UUID, format domain.DatasetFormat, w io.Writer) (filename string, err error)
	Publish(ctx context.Context, id uuid.UUID, format domain.DatasetFormat) (*ExportResult, error)
}

type projectService struct {
	store   *dataset.Store
	repo    port.ChangeLogRepository
	storage port.ObjectStorage
	s3Cfg   config.S3Config

	mu      sync.Mutex
	ledgers map[uuid.UUID]*history.Ledger
}

// NewProjectService creates a new ProjectService implementation. storage
// may be nil, which disables Publish.
func NewProjectService(store *dataset.Store, repo port.ChangeLogRepository, storage port.ObjectStorage, s3Cfg config.S3Config) ProjectService {
	return &projectService{
		store:   store,
		repo:    repo,
		storage: storage,
		s3Cfg:   s3Cfg,
		ledgers: make(map[uuid.UUID]*history.Ledger),
	}
}

func (s *projectService) Create(ctx context.Context, input CreateProjectInput) (*dataset.Summary, error) {
	format, err := dataset.FormatFromFilename(input.Filename)
	if err != nil {
		return nil, err
	}
	table, err := dataset.Load(input.Body, format)
	if err != nil {
		return nil, fmt.Errorf("projectService.Create: %w", err)
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = strings.TrimSuffix(path.Base(input.Filename), path.Ext(input.Filename))
	}
	project := dataset.NewProject(name, table)
	s.store.Add(project)

	s.mu.Lock()
	s.ledgers[project.ID()] = history.NewLedger(project, s.repo)
	s.mu.Unlock()

	log.Printf("projectService.Create: imported %q as %s (%d rows, %d columns)",
		name, project.ID(), table.RowCount(), table.ColumnCount())
	summary := project.Summarize(previewRows)
	return &summary, nil
}

func (s *projectService) Get(_ context.Context, id uuid.UUID) (*dataset.Summary, error) {
	project, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	summary := project.Summarize(previewRows)
	return &summary, nil
}

func (s *projectService) List(_ context.Context) []dataset.Summary {
	projects := s.store.List()
	out := make([]dataset.Summary, 0, len(projects))
	for _, p := range projects {
		out = append(out, p.Summarize(0))
	}
	return out
}

// Open returns the project with its ledger, restoring the ledger from the
// change log the first time it is needed.
func (s *projectService) Open(ctx context.Context, id uuid.UUID) (*dataset.Project, *history.Ledger, error) {
	project, err := s.store.Get(id)
	if err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ledger, ok := s.ledgers[id]; ok {
		return project, ledger, nil
	}
	ledger, err := history.Restore(ctx, project, s.repo)
	if err != nil {
		return nil, nil, err
	}
	s.ledgers[id] = ledger
	return project, ledger, nil
}

func (s *projectService) History(ctx context.Context, id uuid.UUID) ([]domain.HistoryEntry, error) {
	_, ledger, err := s.Open(ctx, id)
	if err != nil {
		return nil, err
	}
	return ledger.Entries(), nil
}

func (s *projectService) Undo(ctx context.Context, id uuid.UUID) (*domain.HistoryEntry, error) {
	_, ledger, err := s.Open(ctx, id)
	if err != nil {
		return nil, err
	}
	return ledger.Undo(ctx)
}

func (s *projectService) Redo(ctx context.Context, id uuid.UUID) (*domain.HistoryEntry, error) {
	_, ledger, err := s.Open(ctx, id)
	if err != nil {
		return nil, err
	}
	return ledger.Redo(ctx)
}

func (s *projectService) Export(_ context.Context, id uuid.UUID, format domain.DatasetFormat, w io.Writer) (string, error) {
	project, err := s.store.Get(id)
	if err != nil {
		return "", err
	}
	if _, ok := domain.DatasetContentTypes[format]; !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
	}
	err = project.View(func(ds port.Dataset) error {
		return dataset.Export(w, ds, format)
	})
	if err != nil {
		return "", err
	}
	return csvexport.BuildFilename(project.Name(), string(format)), nil
}

func (s *projectService) Publish(ctx context.Context, id uuid.UUID, format domain.DatasetFormat) (*ExportResult, error) {
	if s.storage == nil || !s.s3Cfg.Enabled() {
		return nil, domain.ErrExportStorageDisabled
	}

	var buf bytes.Buffer
	filename, err := s.Export(ctx, id, format, &buf)
	if err != nil {
		return nil, err
	}

	out, err := s.storage.PublishExport(ctx, port.ExportObject{
		Bucket:      s.s3Cfg.Bucket,
		ProjectID:   id.String(),
		Filename:    filename,
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: domain.DatasetContentTypes[format],
		PublishedAt: time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("projectService.Publish: %w", err)
	}
	url, err := s.storage.PresignDownload(ctx, s.s3Cfg.Bucket, out.Key, filename, s.s3Cfg.PresignExpiry)
	if err != nil {
		return nil, fmt.Errorf("projectService.Publish: %w", err)
	}
	log.Printf("projectService.Publish: uploaded %s (%d bytes)", out.Key, buf.Len())
	return &ExportResult{Key: out.Key, Location: out.Location, URL: url}, nil
}
