package http

import (
	"net/http"
	"strconv"

	"golang-fii-analyzer/internal/dto"
	"golang-fii-analyzer/internal/repository"
	"golang-fii-analyzer/internal/service"
	"golang-fii-analyzer/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AnalysisHandler handles HTTP requests for analysis results and the scoring
// policy.
type AnalysisHandler struct {
	analyzer     service.AnalyzerService
	analysisRepo repository.AnalysisRepository
	logger       *logger.Logger
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(analyzer service.AnalyzerService, analysisRepo repository.AnalysisRepository, logger *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{analyzer: analyzer, analysisRepo: analysisRepo, logger: logger}
}

// RegisterRoutes registers the analysis routes to the Echo group.
func (h *AnalysisHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetLatest)
	g.POST("/run", h.Run)
	g.GET("/policy", h.GetPolicy)
	g.PUT("/policy", h.UpdatePolicy)
	g.GET("/:ticker", h.GetByTicker)
}

// GetLatest returns the results of the most recent analysis cycle, ordered by
// rank.
func (h *AnalysisHandler) GetLatest(c echo.Context) error {
	analyses, err := h.analysisRepo.FindLatest(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to load latest analyses", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load latest analyses"})
	}
	return c.JSON(http.StatusOK, analyses)
}

// GetByTicker returns the most recent results for one fund.
func (h *AnalysisHandler) GetByTicker(c echo.Context) error {
	limit := 30
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid limit"})
		}
		limit = parsed
	}

	analyses, err := h.analysisRepo.FindByTicker(c.Request().Context(), c.Param("ticker"), limit)
	if err != nil {
		h.logger.Error("Failed to load analyses", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load analyses"})
	}
	return c.JSON(http.StatusOK, analyses)
}

// Run executes one analysis cycle against the stored records. A policy
// override in the body applies to this run only.
func (h *AnalysisHandler) Run(c echo.Context) error {
	var override dto.PolicyOverride
	if err := c.Bind(&override); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	result, err := h.analyzer.AnalyzeAndStore(c.Request().Context(), &override)
	if err != nil {
		h.logger.Error("Failed to run analysis", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to run analysis"})
	}
	return c.JSON(http.StatusOK, result)
}

// GetPolicy returns the current default scoring policy.
func (h *AnalysisHandler) GetPolicy(c echo.Context) error {
	return c.JSON(http.StatusOK, h.analyzer.Policy())
}

// UpdatePolicy permanently applies the override to the default scoring policy.
func (h *AnalysisHandler) UpdatePolicy(c echo.Context) error {
	var override dto.PolicyOverride
	if err := c.Bind(&override); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	h.analyzer.UpdatePolicy(override)
	return c.JSON(http.StatusOK, h.analyzer.Policy())
}
