// Package pipeline orchestrates migration runs end to end: input
// validation, extraction, ID resolution, unit processing, and the audit
// report. Runs execute asynchronously; callers poll run state by ID.
package pipeline

import (
	"context"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/internal/repositories/runhistory"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/extractor"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/migrator"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/progress"
	"github.com/Ramsey-B/clover/pkg/ratelimit"
	"github.com/Ramsey-B/clover/pkg/report"
	"github.com/Ramsey-B/clover/pkg/resolver"
	"github.com/Ramsey-B/clover/pkg/sfexport"
)

// HubSpotService is the destination surface the pipeline depends on.
type HubSpotService interface {
	migrator.Destination
	AccountDetails(ctx context.Context) (*models.AccountDetails, error)
	SearchByProperty(ctx context.Context, objectType, propertyName string, values []string) (map[string]string, error)
}

// Config tunes run execution.
type Config struct {
	BatchSize  int
	BatchDelay time.Duration
}

// Pipeline starts and tracks migration runs.
type Pipeline struct {
	reader  *sfexport.Reader
	extract *extractor.Extractor
	hub     HubSpotService
	limits  *ratelimit.Manager
	runs    *runhistory.Repository
	store   *report.Store
	emitter *events.Emitter
	logger  ectologger.Logger
	cfg     Config

	mu     sync.Mutex
	active map[string]*activeRun
}

type activeRun struct {
	tracker   *progress.Tracker
	collector *report.Collector
}

func New(
	reader *sfexport.Reader,
	extract *extractor.Extractor,
	hub HubSpotService,
	limits *ratelimit.Manager,
	runs *runhistory.Repository,
	store *report.Store,
	emitter *events.Emitter,
	cfg Config,
	logger ectologger.Logger,
) *Pipeline {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchDelay <= 0 {
		cfg.BatchDelay = resolver.DefaultBatchDelay
	}
	return &Pipeline{
		reader:  reader,
		extract: extract,
		hub:     hub,
		limits:  limits,
		runs:    runs,
		store:   store,
		emitter: emitter,
		logger:  logger,
		cfg:     cfg,
		active:  make(map[string]*activeRun),
	}
}

// StartFilesRun validates the export and launches an asynchronous files
// migration. Validation failures abort before the run is recorded and
// before anything is sent to HubSpot.
func (p *Pipeline) StartFilesRun(ctx context.Context, req models.StartFilesRunRequest) (*models.MigrationRun, error) {
	linksPath := resolvePath(req.ExportDir, req.LinksCSV)
	versionsPath := resolvePath(req.ExportDir, req.VersionsCSV)

	if err := p.reader.ValidateFilesExport(ctx, linksPath, versionsPath); err != nil {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid export: %s", err.Error())
	}

	run, err := p.runs.Create(ctx, &models.MigrationRun{
		Kind:      models.RunKindFiles,
		ExportDir: req.ExportDir,
	})
	if err != nil {
		return nil, err
	}

	state := p.register(run.ID, models.RunKindFiles)
	go p.runFiles(*run, req, state)
	return run, nil
}

// StartChatterRun validates the export and launches an asynchronous
// chatter migration.
func (p *Pipeline) StartChatterRun(ctx context.Context, req models.StartChatterRunRequest) (*models.MigrationRun, error) {
	feedPath := resolvePath(req.ExportDir, req.FeedCSV)
	commentsPath := resolvePath(req.ExportDir, req.CommentsCSV)

	if err := p.reader.ValidateChatterExport(ctx, feedPath, commentsPath); err != nil {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid export: %s", err.Error())
	}

	run, err := p.runs.Create(ctx, &models.MigrationRun{
		Kind:      models.RunKindChatter,
		ExportDir: req.ExportDir,
	})
	if err != nil {
		return nil, err
	}

	state := p.register(run.ID, models.RunKindChatter)
	go p.runChatter(*run, req, state)
	return run, nil
}

// State returns the run's stored record plus, while it executes, live
// progress and summary figures.
func (p *Pipeline) State(ctx context.Context, runID string) (*models.RunStateResponse, error) {
	run, err := p.runs.Get(ctx, runID)
	if err != nil {
		return nil, err
	}

	resp := &models.RunStateResponse{Run: *run}

	p.mu.Lock()
	state, running := p.active[runID]
	p.mu.Unlock()

	if running {
		latest := state.tracker.Latest()
		resp.Progress = &latest
		resp.Summaries = state.collector.Summaries()
		return resp, nil
	}

	summaries, err := p.runs.Summaries(ctx, runID)
	if err == nil {
		resp.Summaries = summaries
	}
	return resp, nil
}

// ReportPath returns the location of a completed run's audit report.
func (p *Pipeline) ReportPath(ctx context.Context, runID string) (string, error) {
	run, err := p.runs.Get(ctx, runID)
	if err != nil {
		return "", err
	}
	if run.ReportPath == "" || !p.store.Exists(runID) {
		return "", httperror.NewHTTPErrorf(http.StatusNotFound, "no report for run %s", runID)
	}
	return run.ReportPath, nil
}

// Delete removes a finished run and its report file.
func (p *Pipeline) Delete(ctx context.Context, runID string) error {
	p.mu.Lock()
	_, running := p.active[runID]
	p.mu.Unlock()
	if running {
		return httperror.NewHTTPErrorf(http.StatusConflict, "run %s is still executing", runID)
	}

	if _, err := p.runs.Get(ctx, runID); err != nil {
		return err
	}
	if err := p.store.Remove(runID); err != nil {
		p.logger.WithContext(ctx).WithError(err).Warn("failed to remove report file")
	}
	return p.runs.Delete(ctx, runID)
}

func (p *Pipeline) register(runID string, kind models.RunKind) *activeRun {
	state := &activeRun{
		tracker:   progress.NewTracker(),
		collector: report.NewCollector(kind),
	}
	p.mu.Lock()
	p.active[runID] = state
	p.mu.Unlock()
	return state
}

func (p *Pipeline) deregister(runID string, state *activeRun) {
	state.tracker.Close()
	p.mu.Lock()
	delete(p.active, runID)
	p.mu.Unlock()
}

func (p *Pipeline) newResolver() *resolver.Resolver {
	return resolver.New(p.hub, p.limits, p.logger,
		resolver.WithBatchSize(p.cfg.BatchSize),
		resolver.WithBatchDelay(p.cfg.BatchDelay),
	)
}

func (p *Pipeline) finishRun(ctx context.Context, run models.MigrationRun, state *activeRun, started time.Time) {
	reportPath, err := p.store.Save(run.ID, state.collector)
	if err != nil {
		p.fail(ctx, run, state, started, err)
		return
	}

	summaries := state.collector.Summaries()
	if err := p.runs.SaveSummaries(ctx, run.ID, summaries); err != nil {
		p.logger.WithContext(ctx).WithError(err).Error("failed to persist run summaries")
	}
	if err := p.runs.MarkCompleted(ctx, run.ID, reportPath); err != nil {
		p.logger.WithContext(ctx).WithError(err).Error("failed to mark run completed")
	}

	state.tracker.Emit(models.StepComplete, 100, "migration completed")
	metrics.RecordRun(string(run.Kind), string(models.RunStatusCompleted), time.Since(started).Seconds())
	p.emitter.EmitRunCompleted(ctx, &run, summaries)
	p.deregister(run.ID, state)
}

func (p *Pipeline) fail(ctx context.Context, run models.MigrationRun, state *activeRun, started time.Time, cause error) {
	p.logger.WithContext(ctx).WithError(cause).WithField("run_id", run.ID).Error("migration run failed")

	if err := p.runs.MarkFailed(ctx, run.ID, cause.Error()); err != nil {
		p.logger.WithContext(ctx).WithError(err).Error("failed to mark run failed")
	}
	metrics.RecordRun(string(run.Kind), string(models.RunStatusFailed), time.Since(started).Seconds())
	p.emitter.EmitRunFailed(ctx, &run, cause.Error())
	p.deregister(run.ID, state)
}

func resolvePath(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
