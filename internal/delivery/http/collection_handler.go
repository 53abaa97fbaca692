package http

import (
	"net/http"

	"golang-fii-analyzer/internal/dto"
	"golang-fii-analyzer/internal/scraper"
	"golang-fii-analyzer/internal/service"
	"golang-fii-analyzer/pkg/logger"

	"github.com/labstack/echo/v4"
)

// CollectionHandler handles HTTP requests for the collection pipeline.
type CollectionHandler struct {
	collector      service.CollectorService
	registry       *scraper.Registry
	defaultSources []string
	logger         *logger.Logger
}

// NewCollectionHandler creates a new CollectionHandler.
func NewCollectionHandler(collector service.CollectorService, registry *scraper.Registry, defaultSources []string, logger *logger.Logger) *CollectionHandler {
	return &CollectionHandler{collector: collector, registry: registry, defaultSources: defaultSources, logger: logger}
}

// RegisterRoutes registers the collection routes to the Echo group.
func (h *CollectionHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.Collect)
	g.GET("/sources", h.ListSources)
}

// Collect runs one collection cycle. An empty source list falls back to the
// configured defaults.
func (h *CollectionHandler) Collect(c echo.Context) error {
	req := dto.CollectRequest{Persist: true}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}
	if len(req.Sources) == 0 {
		req.Sources = h.defaultSources
	}

	return c.JSON(http.StatusOK, h.collector.Collect(c.Request().Context(), req))
}

// ListSources returns the registered source adapter identifiers.
func (h *CollectionHandler) ListSources(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"sources": h.registry.Sources()})
}
