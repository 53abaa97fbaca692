package http

import (
	"errors"
	"net/http"

	"golang-fii-analyzer/internal/dto"
	"golang-fii-analyzer/internal/service"
	"golang-fii-analyzer/pkg/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// AlertHandler handles HTTP requests for alert rules.
type AlertHandler struct {
	alertService service.AlertService
	dispatcher   service.NotificationDispatcher
	logger       *logger.Logger
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(alertService service.AlertService, dispatcher service.NotificationDispatcher, logger *logger.Logger) *AlertHandler {
	return &AlertHandler{alertService: alertService, dispatcher: dispatcher, logger: logger}
}

// RegisterRoutes registers the alert routes to the Echo group.
func (h *AlertHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.CreateAlert)
	g.GET("", h.ListAlerts)
	g.POST("/check", h.CheckAll)
	g.GET("/check/:ticker", h.CheckTicker)
	g.POST("/test-connections", h.TestConnections)
	g.GET("/:id", h.GetAlert)
	g.PUT("/:id", h.UpdateAlert)
	g.DELETE("/:id", h.DeleteAlert)
	g.POST("/:id/toggle", h.ToggleAlert)
}

// CreateAlert creates a new alert rule.
func (h *AlertHandler) CreateAlert(c echo.Context) error {
	var req dto.CreateAlertRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	alert, err := h.alertService.CreateAlert(c.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAlert):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, service.ErrTickerNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
		default:
			h.logger.Error("Failed to create alert", logger.ErrorField(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create alert"})
		}
	}
	return c.JSON(http.StatusCreated, alert)
}

// ListAlerts returns every alert rule.
func (h *AlertHandler) ListAlerts(c echo.Context) error {
	alerts, err := h.alertService.ListAlerts(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to list alerts", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to list alerts"})
	}
	return c.JSON(http.StatusOK, alerts)
}

// GetAlert returns one alert rule by ID.
func (h *AlertHandler) GetAlert(c echo.Context) error {
	alert, err := h.alertService.GetAlert(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Alert not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, alert)
}

// UpdateAlert applies a partial update to an alert rule.
func (h *AlertHandler) UpdateAlert(c echo.Context) error {
	var req dto.UpdateAlertRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	alert, err := h.alertService.UpdateAlert(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Alert not found"})
		case errors.Is(err, service.ErrInvalidAlert):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		default:
			h.logger.Error("Failed to update alert", logger.ErrorField(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update alert"})
		}
	}
	return c.JSON(http.StatusOK, alert)
}

// DeleteAlert removes an alert rule.
func (h *AlertHandler) DeleteAlert(c echo.Context) error {
	if err := h.alertService.DeleteAlert(c.Request().Context(), c.Param("id")); err != nil {
		h.logger.Error("Failed to delete alert", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete alert"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ToggleAlert flips an alert rule's active flag.
func (h *AlertHandler) ToggleAlert(c echo.Context) error {
	var req struct {
		Active bool `json:"active"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	alert, err := h.alertService.ToggleAlert(c.Request().Context(), c.Param("id"), req.Active)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Alert not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, alert)
}

// CheckAll runs one alert check cycle, dispatching notifications for new
// triggers.
func (h *AlertHandler) CheckAll(c echo.Context) error {
	result, err := h.alertService.CheckAll(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to check alerts", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to check alerts"})
	}
	return c.JSON(http.StatusOK, result)
}

// CheckTicker evaluates the rules targeting one fund without sending
// notifications.
func (h *AlertHandler) CheckTicker(c echo.Context) error {
	triggers, err := h.alertService.CheckTicker(c.Request().Context(), c.Param("ticker"))
	if err != nil {
		if errors.Is(err, service.ErrTickerNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"triggered_count": len(triggers), "triggers": triggers})
}

// TestConnections exercises each configured notification channel.
func (h *AlertHandler) TestConnections(c echo.Context) error {
	return c.JSON(http.StatusOK, h.dispatcher.TestConnections(c.Request().Context()))
}
