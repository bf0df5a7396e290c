package handlers

import (
	"path/filepath"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/sfexport"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Ramsey-B/clover/pkg/utils"
)

// AnalyzeHandler inspects exports before a migration is configured,
// reporting record counts per ID prefix.
type AnalyzeHandler struct {
	reader *sfexport.Reader
	logger ectologger.Logger
}

func NewAnalyzeHandler(reader *sfexport.Reader, logger ectologger.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{
		reader: reader,
		logger: logger,
	}
}

// Register registers analyze routes
func (h *AnalyzeHandler) Register(g *echo.Group) {
	g.POST("/analyze/files", h.Files)
	g.POST("/analyze/chatter", h.Chatter)
}

// Files summarizes a document links export by parent ID prefix
func (h *AnalyzeHandler) Files(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "AnalyzeHandler.Files")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	var req models.AnalyzeRequest
	if err := c.Bind(&req); err != nil {
		return BadRequest("invalid request body")
	}
	if _, err := utils.Validate(req); err != nil {
		return BadRequest(err.Error())
	}

	counts, err := h.reader.AnalyzeLinks(ctx, analyzePath(req))
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to analyze links export")
		return err
	}

	return SuccessResponse(c, counts)
}

// Chatter summarizes a feed export by parent ID prefix
func (h *AnalyzeHandler) Chatter(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "AnalyzeHandler.Chatter")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	var req models.AnalyzeRequest
	if err := c.Bind(&req); err != nil {
		return BadRequest("invalid request body")
	}
	if _, err := utils.Validate(req); err != nil {
		return BadRequest(err.Error())
	}

	counts, err := h.reader.AnalyzeFeed(ctx, analyzePath(req))
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to analyze feed export")
		return err
	}

	return SuccessResponse(c, counts)
}

func analyzePath(req models.AnalyzeRequest) string {
	if filepath.IsAbs(req.CSVPath) {
		return req.CSVPath
	}
	return filepath.Join(req.ExportDir, req.CSVPath)
}
