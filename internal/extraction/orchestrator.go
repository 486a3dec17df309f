// Package extraction runs named-entity providers over a dataset column and
// collects their outcomes into a result matrix.
package extraction

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"refinener/internal/config"
	"refinener/internal/domain"
	"refinener/internal/logging"
	"refinener/internal/materialize"
	"refinener/internal/metrics"
	"refinener/internal/port"
	"refinener/internal/provider"
)

// ProgressFunc receives the completion percentage after each in-scope row.
// With more than one row worker it may be called from several goroutines.
type ProgressFunc func(percent int)

// Request describes one extraction run.
type Request struct {
	Column    string
	Providers []port.Extractor
	// Settings holds per-run overrides keyed by provider name.
	Settings map[string]map[string]string
	// Scope selects the rows to extract; nil means every row.
	Scope port.RowScope
}

// Plan is a validated Request with the column text snapshotted.
type Plan struct {
	Column      string
	ColumnIndex int
	Providers   []port.Extractor
	Settings    []map[string]string
	// Version is the dataset structure version the plan was taken at.
	Version uint64

	texts   []string
	inScope []bool
	total   int
}

// ProviderNames returns the provider names in column order.
func (p *Plan) ProviderNames() []string {
	names := make([]string, len(p.Providers))
	for i, ex := range p.Providers {
		names[i] = ex.Name()
	}
	return names
}

// NewChange builds the change for matrix with its columns right after the
// source column. The change only applies while the dataset structure is
// still the one the plan was taken at.
func (p *Plan) NewChange(matrix *domain.ResultMatrix) (*materialize.Change, error) {
	change, err := materialize.NewChange(p.ColumnIndex+1, p.ProviderNames(), matrix)
	if err != nil {
		return nil, err
	}
	change.RequireVersion(p.Version)
	return change, nil
}

// RowCount is the number of dataset rows at plan time.
func (p *Plan) RowCount() int { return len(p.texts) }

// InScopeCount is the number of rows that will be extracted.
func (p *Plan) InScopeCount() int { return p.total }

// Orchestrator fans row text out to providers and joins their outcomes.
type Orchestrator struct {
	rowWorkers      int
	providerTimeout time.Duration
}

// NewOrchestrator creates an Orchestrator from config.
func NewOrchestrator(cfg config.ExtractionConfig) *Orchestrator {
	workers := cfg.RowWorkers
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{rowWorkers: workers, providerTimeout: cfg.ProviderTimeout()}
}

// Prepare validates req against the project and snapshots the column. Every
// configuration error is reported here, before any provider is called.
func (o *Orchestrator) Prepare(project port.Project, req Request) (*Plan, error) {
	if len(req.Providers) == 0 {
		return nil, domain.ErrNoProviders
	}

	plan := &Plan{Column: req.Column, Providers: req.Providers}
	seen := make(map[string]bool, len(req.Providers))
	for _, ex := range req.Providers {
		if seen[ex.Name()] {
			return nil, fmt.Errorf("%w: provider %q listed twice", domain.ErrDuplicateColumn, ex.Name())
		}
		seen[ex.Name()] = true
		settings, err := provider.ResolveSettings(ex, req.Settings[ex.Name()])
		if err != nil {
			return nil, err
		}
		plan.Settings = append(plan.Settings, settings)
	}
	for name := range req.Settings {
		if !seen[name] {
			return nil, fmt.Errorf("%w: settings given for %q, which is not part of this run", domain.ErrUnknownProvider, name)
		}
	}

	err := project.View(func(ds port.Dataset) error {
		idx := ds.ColumnIndexByName(req.Column)
		if idx < 0 {
			return fmt.Errorf("%w: %q", domain.ErrUnknownColumn, req.Column)
		}
		for _, name := range plan.ProviderNames() {
			if ds.ColumnIndexByName(name) >= 0 {
				return fmt.Errorf("%w: %q", domain.ErrDuplicateColumn, name)
			}
		}
		plan.ColumnIndex = idx
		plan.Version = ds.Version()
		slot := ds.Columns()[idx].CellIndex

		rows := ds.RowCount()
		plan.texts = make([]string, rows)
		plan.inScope = make([]bool, rows)
		for r := 0; r < rows; r++ {
			if req.Scope != nil && !req.Scope.InScope(r) {
				continue
			}
			plan.inScope[r] = true
			plan.total++
			if cell := ds.Cell(r, slot); cell != nil && !cell.IsError {
				plan.texts[r] = cell.Text
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// Run prepares and executes req.
func (o *Orchestrator) Run(ctx context.Context, project port.Project, req Request, progress ProgressFunc) (*domain.ResultMatrix, error) {
	plan, err := o.Prepare(project, req)
	if err != nil {
		return nil, err
	}
	return o.Execute(ctx, plan, progress)
}

// Execute extracts every in-scope row of plan. Rows are checked for
// cancellation before they start; once ctx is done no new row starts and
// ErrCanceled is returned with no matrix. Provider failures never fail the
// run.
func (o *Orchestrator) Execute(ctx context.Context, plan *Plan, progress ProgressFunc) (*domain.ResultMatrix, error) {
	if progress == nil {
		progress = func(int) {}
	}
	matrix := domain.NewResultMatrix(len(plan.texts), len(plan.Providers))
	if plan.total == 0 {
		progress(100)
		return matrix, nil
	}

	log.Printf("extraction.Orchestrator: extracting column %q, %d of %d rows, providers %v",
		plan.Column, plan.total, len(plan.texts), plan.ProviderNames())
	start := time.Now()

	var processed atomic.Int64
	var g errgroup.Group
	g.SetLimit(o.rowWorkers)

	for r := range plan.texts {
		if ctx.Err() != nil {
			break
		}
		if !plan.inScope[r] {
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			matrix.SetRow(r, o.extractRow(ctx, plan, plan.texts[r]))
			metrics.Default().AddRowsProcessed(1)
			n := processed.Add(1)
			logging.Debugf("extraction.Orchestrator: row %d done (%d/%d)", r, n, plan.total)
			progress(int(100 * n / int64(plan.total)))
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		log.Printf("extraction.Orchestrator: canceled after %d of %d rows", processed.Load(), plan.total)
		return nil, domain.ErrCanceled
	}

	log.Printf("extraction.Orchestrator: done in %s, %d provider failures",
		time.Since(start).Round(time.Millisecond), matrix.Failures())
	return matrix, nil
}

// extractRow calls every provider concurrently on text and waits for all of
// them. Blank text gets empty successes without any call. Calls run on a
// context detached from ctx so a cancel lets them finish; only the provider
// timeout bounds them.
func (o *Orchestrator) extractRow(ctx context.Context, plan *Plan, text string) []domain.ExtractionOutcome {
	outcomes := make([]domain.ExtractionOutcome, len(plan.Providers))
	if strings.TrimSpace(text) == "" {
		return outcomes
	}

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.providerTimeout)
	defer cancel()

	var g errgroup.Group
	for i, ex := range plan.Providers {
		g.Go(func() error {
			outcomes[i] = callProvider(callCtx, ex, text, plan.Settings[i])
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// callProvider runs one provider call, turning a panic into a Failure.
func callProvider(ctx context.Context, ex port.Extractor, text string, settings map[string]string) (outcome domain.ExtractionOutcome) {
	done := metrics.TimeProvider(ex.Name())
	defer func() {
		if r := recover(); r != nil {
			log.Printf("extraction.Orchestrator: provider %s panicked: %v", ex.Name(), r)
			outcome = domain.Failure(fmt.Sprintf("%s: internal error", ex.Name()))
		}
		done(!outcome.HasError())
	}()
	return ex.Extract(ctx, text, settings)
}
