// Package runhistory persists migration runs and their per-object
// summaries so past migrations stay inspectable after a restart.
package runhistory

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Repository handles migration run persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new pending run.
func (r *Repository) Create(ctx context.Context, run *models.MigrationRun) (*models.MigrationRun, error) {
	ctx, span := tracing.StartSpan(ctx, "runhistory.Repository.Create")
	defer span.End()

	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	run.CreatedAt = time.Now().UTC()
	if run.Status == "" {
		run.Status = models.RunStatusPending
	}

	sb := database.NewInsertBuilder()
	sb.InsertInto("migration_runs")
	sb.Cols("id", "kind", "status", "export_dir", "report_path", "error", "created_at", "started_at", "completed_at")
	sb.Values(run.ID, run.Kind, run.Status, run.ExportDir, run.ReportPath, run.Error, run.CreatedAt, run.StartedAt, run.CompletedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create migration run")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create migration run")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": run.ID, "kind": run.Kind}).Info("Created migration run")
	return run, nil
}

// Get retrieves a run by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.MigrationRun, error) {
	ctx, span := tracing.StartSpan(ctx, "runhistory.Repository.Get")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("id", "kind", "status", "export_dir", "report_path", "error", "created_at", "started_at", "completed_at")
	sb.From("migration_runs")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var run models.MigrationRun
	if err := r.db.GetContext(ctx, &run, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("migration run %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get migration run")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get migration run")
	}

	return &run, nil
}

// List returns runs newest first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]models.MigrationRun, error) {
	ctx, span := tracing.StartSpan(ctx, "runhistory.Repository.List")
	defer span.End()

	if limit <= 0 {
		limit = 50
	}

	sb := database.NewSelectBuilder()
	sb.Select("id", "kind", "status", "export_dir", "report_path", "error", "created_at", "started_at", "completed_at")
	sb.From("migration_runs")
	sb.OrderBy("created_at").Desc()
	sb.Limit(limit).Offset(offset)

	query, args := sb.Build()
	runs := []models.MigrationRun{}
	if err := r.db.SelectContext(ctx, &runs, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list migration runs")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list migration runs")
	}

	return runs, nil
}

// MarkRunning transitions a run to running and stamps its start time.
func (r *Repository) MarkRunning(ctx context.Context, id string) error {
	now := time.Now().UTC()
	return r.update(ctx, id, map[string]any{
		"status":     models.RunStatusRunning,
		"started_at": now,
	})
}

// MarkCompleted transitions a run to completed with its report location.
func (r *Repository) MarkCompleted(ctx context.Context, id, reportPath string) error {
	now := time.Now().UTC()
	return r.update(ctx, id, map[string]any{
		"status":       models.RunStatusCompleted,
		"report_path":  reportPath,
		"completed_at": now,
	})
}

// MarkFailed transitions a run to failed with the failure reason.
func (r *Repository) MarkFailed(ctx context.Context, id, reason string) error {
	now := time.Now().UTC()
	return r.update(ctx, id, map[string]any{
		"status":       models.RunStatusFailed,
		"error":        reason,
		"completed_at": now,
	})
}

func (r *Repository) update(ctx context.Context, id string, fields map[string]any) error {
	ctx, span := tracing.StartSpan(ctx, "runhistory.Repository.update")
	defer span.End()

	sb := database.NewUpdateBuilder()
	sb.Update("migration_runs")
	assignments := make([]string, 0, len(fields))
	for column, value := range fields {
		assignments = append(assignments, sb.Assign(column, value))
	}
	sb.Set(assignments...)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update migration run")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update migration run")
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("migration run %s not found", id))
	}
	return nil
}

// SaveSummaries replaces the run's per-object summaries.
func (r *Repository) SaveSummaries(ctx context.Context, runID string, summaries []models.ObjectSummary) error {
	ctx, span := tracing.StartSpan(ctx, "runhistory.Repository.SaveSummaries")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	db := database.NewDeleteBuilder()
	db.DeleteFrom("run_summaries")
	db.Where(db.Equal("run_id", runID))
	query, args := db.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to clear run summaries")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to save run summaries")
	}

	for _, summary := range summaries {
		sb := database.NewInsertBuilder()
		sb.InsertInto("run_summaries")
		sb.Cols("run_id", "prefix", "object_name", "success_count", "skipped_count", "error_count", "uploaded_files")
		sb.Values(runID, summary.Prefix, summary.ObjectName, summary.SuccessCount, summary.SkippedCount, summary.ErrorCount, summary.UploadedFiles)

		query, args := sb.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error("Failed to save run summary")
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to save run summaries")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to save run summaries")
	}
	return nil
}

// Summaries returns the run's per-object summaries ordered by prefix.
func (r *Repository) Summaries(ctx context.Context, runID string) ([]models.ObjectSummary, error) {
	ctx, span := tracing.StartSpan(ctx, "runhistory.Repository.Summaries")
	defer span.End()

	sb := database.NewStruct(new(models.ObjectSummary)).SelectFrom("run_summaries")
	sb.Where(sb.Equal("run_id", runID))
	sb.OrderBy("prefix")

	query, args := sb.Build()
	summaries := []models.ObjectSummary{}
	if err := r.db.SelectContext(ctx, &summaries, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get run summaries")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get run summaries")
	}

	return summaries, nil
}

// Delete removes a run and its summaries.
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "runhistory.Repository.Delete")
	defer span.End()

	sb := database.NewDeleteBuilder()
	sb.DeleteFrom("migration_runs")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete migration run")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete migration run")
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("migration run %s not found", id))
	}
	return nil
}
