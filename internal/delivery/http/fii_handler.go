package http

import (
	"errors"
	"net/http"
	"strconv"

	"golang-fii-analyzer/internal/repository"
	"golang-fii-analyzer/pkg/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// FIIHandler handles HTTP requests for fund records.
type FIIHandler struct {
	fiiRepo repository.FIIRepository
	logger  *logger.Logger
}

// NewFIIHandler creates a new FIIHandler.
func NewFIIHandler(fiiRepo repository.FIIRepository, logger *logger.Logger) *FIIHandler {
	return &FIIHandler{fiiRepo: fiiRepo, logger: logger}
}

// RegisterRoutes registers the fund routes to the Echo group.
func (h *FIIHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.ListFunds)
	g.GET("/:ticker", h.GetFund)
	g.GET("/:ticker/history", h.GetFundHistory)
}

// ListFunds returns every current fund record.
func (h *FIIHandler) ListFunds(c echo.Context) error {
	fiis, err := h.fiiRepo.FindAll(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to list funds", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to list funds"})
	}
	return c.JSON(http.StatusOK, fiis)
}

// GetFund returns the current record for one fund.
func (h *FIIHandler) GetFund(c echo.Context) error {
	fii, err := h.fiiRepo.FindByTicker(c.Request().Context(), c.Param("ticker"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Fund not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, fii)
}

// GetFundHistory returns the most recent history samples for one fund.
func (h *FIIHandler) GetFundHistory(c echo.Context) error {
	limit := 30
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid limit"})
		}
		limit = parsed
	}

	samples, err := h.fiiRepo.FindHistory(c.Request().Context(), c.Param("ticker"), limit)
	if err != nil {
		h.logger.Error("Failed to load fund history", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load fund history"})
	}
	return c.JSON(http.StatusOK, samples)
}
