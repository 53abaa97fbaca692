package http

import (
	"net/http"

	"golang-fii-analyzer/internal/eventbus"

	"github.com/labstack/echo/v4"
)

// EventHandler exposes the event bus inspection ring.
type EventHandler struct {
	bus *eventbus.Bus
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(bus *eventbus.Bus) *EventHandler {
	return &EventHandler{bus: bus}
}

// RegisterRoutes registers the event routes to the Echo group.
func (h *EventHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetRecent)
}

// GetRecent returns the retained events, oldest first.
func (h *EventHandler) GetRecent(c echo.Context) error {
	return c.JSON(http.StatusOK, h.bus.Recent())
}
