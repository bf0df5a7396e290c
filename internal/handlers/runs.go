package handlers

import (
	"strconv"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/internal/repositories/runhistory"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/pipeline"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Ramsey-B/clover/pkg/utils"
)

// RunHandler starts migrations and exposes run state and reports.
type RunHandler struct {
	pipeline *pipeline.Pipeline
	runs     *runhistory.Repository
	logger   ectologger.Logger
}

func NewRunHandler(p *pipeline.Pipeline, runs *runhistory.Repository, logger ectologger.Logger) *RunHandler {
	return &RunHandler{
		pipeline: p,
		runs:     runs,
		logger:   logger,
	}
}

// Register registers migration and run routes
func (h *RunHandler) Register(g *echo.Group) {
	g.POST("/migrations/files", h.StartFiles)
	g.POST("/migrations/chatter", h.StartChatter)
	g.GET("/runs", h.List)
	g.GET("/runs/:id", h.Get)
	g.GET("/runs/:id/report", h.Report)
	g.DELETE("/runs/:id", h.Delete)
}

// StartFiles launches a files migration run
func (h *RunHandler) StartFiles(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "RunHandler.StartFiles")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	var req models.StartFilesRunRequest
	if err := c.Bind(&req); err != nil {
		return BadRequest("invalid request body")
	}
	if _, err := utils.Validate(req); err != nil {
		return BadRequest(err.Error())
	}

	run, err := h.pipeline.StartFilesRun(ctx, req)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to start files migration")
		return err
	}

	return AcceptedResponse(c, models.StartRunResponse{RunID: run.ID})
}

// StartChatter launches a chatter migration run
func (h *RunHandler) StartChatter(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "RunHandler.StartChatter")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	var req models.StartChatterRunRequest
	if err := c.Bind(&req); err != nil {
		return BadRequest("invalid request body")
	}
	if _, err := utils.Validate(req); err != nil {
		return BadRequest(err.Error())
	}

	run, err := h.pipeline.StartChatterRun(ctx, req)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to start chatter migration")
		return err
	}

	return AcceptedResponse(c, models.StartRunResponse{RunID: run.ID})
}

// List returns past and active runs, newest first
func (h *RunHandler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "RunHandler.List")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	runs, err := h.runs.List(ctx, limit, offset)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to list runs")
		return err
	}

	return SuccessResponse(c, runs)
}

// Get returns a run's state, including live progress while it executes
func (h *RunHandler) Get(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "RunHandler.Get")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	id, err := RunIDParam(c)
	if err != nil {
		return err
	}

	state, err := h.pipeline.State(ctx, id)
	if err != nil {
		return err
	}

	return SuccessResponse(c, state)
}

// Report streams a completed run's audit CSV
func (h *RunHandler) Report(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "RunHandler.Report")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	id, err := RunIDParam(c)
	if err != nil {
		return err
	}

	path, err := h.pipeline.ReportPath(ctx, id)
	if err != nil {
		return err
	}

	return c.Attachment(path, "migration_report_"+id+".csv")
}

// Delete removes a finished run and its report
func (h *RunHandler) Delete(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "RunHandler.Delete")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	id, err := RunIDParam(c)
	if err != nil {
		return err
	}

	if err := h.pipeline.Delete(ctx, id); err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to delete run")
		return err
	}

	return NoContentResponse(c)
}
