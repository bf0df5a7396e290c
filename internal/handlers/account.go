package handlers

import (
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/hubspot"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// AccountHandler verifies the destination token and lists target objects.
type AccountHandler struct {
	hub    *hubspot.Service
	logger ectologger.Logger
}

func NewAccountHandler(hub *hubspot.Service, logger ectologger.Logger) *AccountHandler {
	return &AccountHandler{
		hub:    hub,
		logger: logger,
	}
}

// Register registers account routes
func (h *AccountHandler) Register(g *echo.Group) {
	g.GET("/account/verify", h.Verify)
	g.GET("/objects", h.Objects)
}

// Verify checks the configured token against the destination portal
func (h *AccountHandler) Verify(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "AccountHandler.Verify")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	details, err := h.hub.AccountDetails(ctx)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to verify account token")
		return err
	}

	return SuccessResponse(c, details)
}

// Objects lists the objects notes can be migrated to
func (h *AccountHandler) Objects(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "AccountHandler.Objects")
	defer span.End()
	c.SetRequest(c.Request().WithContext(ctx))

	objects, err := h.hub.ListObjects(ctx)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to list objects")
		return err
	}

	return SuccessResponse(c, objects)
}
