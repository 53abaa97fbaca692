package http

import (
	"context"
	"net/http"

	"golang-fii-analyzer/internal/dto"
	"golang-fii-analyzer/internal/service"
	"golang-fii-analyzer/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SchedulerHandler handles HTTP requests for the interval scheduler.
type SchedulerHandler struct {
	// baseCtx outlives the request so timer tasks started here are not
	// cancelled when the request ends.
	baseCtx   context.Context
	scheduler service.SchedulerService
	logger    *logger.Logger
}

// NewSchedulerHandler creates a new SchedulerHandler.
func NewSchedulerHandler(baseCtx context.Context, scheduler service.SchedulerService, logger *logger.Logger) *SchedulerHandler {
	return &SchedulerHandler{baseCtx: baseCtx, scheduler: scheduler, logger: logger}
}

// RegisterRoutes registers the scheduler routes to the Echo group.
func (h *SchedulerHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/status", h.GetStatus)
	g.POST("/start", h.Start)
	g.POST("/stop", h.Stop)
	g.PUT("/config", h.UpdateConfig)
	g.POST("/run/collection", h.RunCollection)
	g.POST("/run/analysis", h.RunAnalysis)
	g.POST("/run/alerts", h.RunAlertCheck)
}

// GetStatus reports the scheduler's running state, intervals, and busy flags.
func (h *SchedulerHandler) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.scheduler.Status())
}

// Start starts the interval timers.
func (h *SchedulerHandler) Start(c echo.Context) error {
	h.scheduler.Start(h.baseCtx)
	return c.JSON(http.StatusOK, h.scheduler.Status())
}

// Stop clears the interval timers.
func (h *SchedulerHandler) Stop(c echo.Context) error {
	h.scheduler.Stop()
	return c.JSON(http.StatusOK, h.scheduler.Status())
}

// UpdateConfig applies a partial scheduler configuration.
func (h *SchedulerHandler) UpdateConfig(c echo.Context) error {
	var update dto.SchedulerConfigUpdate
	if err := c.Bind(&update); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	h.scheduler.UpdateConfig(update)
	return c.JSON(http.StatusOK, h.scheduler.Status())
}

// RunCollection triggers one collection cycle immediately.
func (h *SchedulerHandler) RunCollection(c echo.Context) error {
	result := h.scheduler.RunCollection(c.Request().Context())
	if result == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "Collection already in progress"})
	}
	return c.JSON(http.StatusOK, result)
}

// RunAnalysis triggers one analysis cycle immediately.
func (h *SchedulerHandler) RunAnalysis(c echo.Context) error {
	result, err := h.scheduler.RunAnalysis(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to run analysis", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to run analysis"})
	}
	if result == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "Analysis already in progress"})
	}
	return c.JSON(http.StatusOK, result)
}

// RunAlertCheck triggers one alert check cycle immediately.
func (h *SchedulerHandler) RunAlertCheck(c echo.Context) error {
	result, err := h.scheduler.RunAlertCheck(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to run alert check", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to run alert check"})
	}
	if result == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "Alert check already in progress"})
	}
	return c.JSON(http.StatusOK, result)
}
