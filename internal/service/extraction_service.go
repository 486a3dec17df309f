package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"refinener/internal/dataset"
	"refinener/internal/domain"
	"refinener/internal/extraction"
	"refinener/internal/materialize"
	"refinener/internal/port"
	"refinener/internal/provider"
)

// StartExtractionInput selects the column, providers, settings and rows of
// an extraction run.
type StartExtractionInput struct {
	Column    string                       `json:"column" binding:"required"`
	Providers []string                     `json:"providers" binding:"required"`
	Settings  map[string]map[string]string `json:"settings"`
	Filter    domain.FilterConfig          `json:"filter"`
	// SkipUnconfigured drops unconfigured providers instead of rejecting
	// the run.
	SkipUnconfigured bool `json:"skip_unconfigured"`
}

// ExtractionService starts and tracks extraction processes.
type ExtractionService interface {
	Start(ctx context.Context, projectID uuid.UUID, input StartExtractionInput) (*extraction.ProcessInfo, error)
	Get(ctx context.Context, processID uuid.UUID) (*extraction.ProcessInfo, error)
	Cancel(ctx context.Context, processID uuid.UUID) (*extraction.ProcessInfo, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]extraction.ProcessInfo, error)
	Shutdown()
}

type extractionService struct {
	projects     ProjectService
	providers    *provider.Manager
	orchestrator *extraction.Orchestrator
	tracker      *extraction.Tracker
}

// NewExtractionService creates a new ExtractionService implementation.
func NewExtractionService(projects ProjectService, providers *provider.Manager, orchestrator *extraction.Orchestrator) ExtractionService {
	return &extractionService{
		projects:     projects,
		providers:    providers,
		orchestrator: orchestrator,
		tracker:      extraction.NewTracker(),
	}
}

func (s *extractionService) Start(ctx context.Context, projectID uuid.UUID, input StartExtractionInput) (*extraction.ProcessInfo, error) {
	project, ledger, err := s.projects.Open(ctx, projectID)
	if err != nil {
		return nil, err
	}

	extractors, settings, err := s.resolveProviders(input)
	if err != nil {
		return nil, err
	}

	var scope port.RowScope
	err = project.View(func(ds port.Dataset) error {
		var scopeErr error
		scope, scopeErr = dataset.BuildScope(ds, input.Filter)
		return scopeErr
	})
	if err != nil {
		return nil, err
	}

	plan, err := s.orchestrator.Prepare(project, extraction.Request{
		Column:    input.Column,
		Providers: extractors,
		Settings:  settings,
		Scope:     scope,
	})
	if err != nil {
		return nil, err
	}

	complete := func(ctx context.Context, description string, change *materialize.Change) error {
		_, err := ledger.Add(ctx, description, change)
		return err
	}
	process := extraction.Start(ctx, s.orchestrator, project, plan, complete)
	s.tracker.Add(process)

	log.Printf("extractionService.Start: process %s on project %s column %q (%d rows in scope)",
		process.ID(), projectID, input.Column, plan.InScopeCount())
	info := process.Info()
	return &info, nil
}

// resolveProviders looks up the requested providers and applies the
// unconfigured-provider policy. Settings of skipped providers are dropped.
func (s *extractionService) resolveProviders(input StartExtractionInput) ([]port.Extractor, map[string]map[string]string, error) {
	all, err := s.providers.Resolve(input.Providers)
	if err != nil {
		return nil, nil, err
	}
	extractors := make([]port.Extractor, 0, len(all))
	skipped := make(map[string]bool)
	for _, ex := range all {
		if ex.IsConfigured() {
			extractors = append(extractors, ex)
			continue
		}
		if !input.SkipUnconfigured {
			return nil, nil, fmt.Errorf("%w: %q", domain.ErrProviderNotConfigured, ex.Name())
		}
		skipped[ex.Name()] = true
	}
	if len(extractors) == 0 {
		return nil, nil, domain.ErrNoProviders
	}

	settings := make(map[string]map[string]string, len(input.Settings))
	for name, values := range input.Settings {
		if !skipped[name] {
			settings[name] = values
		}
	}
	return extractors, settings, nil
}

func (s *extractionService) Get(_ context.Context, processID uuid.UUID) (*extraction.ProcessInfo, error) {
	process, err := s.tracker.Get(processID)
	if err != nil {
		return nil, err
	}
	info := process.Info()
	return &info, nil
}

func (s *extractionService) Cancel(_ context.Context, processID uuid.UUID) (*extraction.ProcessInfo, error) {
	process, err := s.tracker.Get(processID)
	if err != nil {
		return nil, err
	}
	process.Cancel()
	info := process.Info()
	return &info, nil
}

func (s *extractionService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]extraction.ProcessInfo, error) {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return nil, err
	}
	processes := s.tracker.ListByProject(projectID)
	out := make([]extraction.ProcessInfo, 0, len(processes))
	for _, p := range processes {
		out = append(out, p.Info())
	}
	return out, nil
}

func (s *extractionService) Shutdown() {
	s.tracker.CancelAll()
}
