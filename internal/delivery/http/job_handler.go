package http

import (
	"errors"
	"net/http"
	"strconv"

	"golang-fii-analyzer/internal/dto"
	"golang-fii-analyzer/internal/worker"
	"golang-fii-analyzer/pkg/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// JobHandler handles HTTP requests for the job queue.
type JobHandler struct {
	worker worker.Worker
	logger *logger.Logger
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(worker worker.Worker, logger *logger.Logger) *JobHandler {
	return &JobHandler{worker: worker, logger: logger}
}

// RegisterRoutes registers the job routes to the Echo group.
func (h *JobHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.EnqueueJob)
	g.GET("/status", h.GetStatus)
	g.GET("/stats", h.GetStats)
	g.GET("/recent", h.GetRecentResults)
	g.GET("/history", h.GetHistory)
	g.GET("/:id", h.GetJob)
}

// EnqueueJob queues a new job and returns its generated ID.
func (h *JobHandler) EnqueueJob(c echo.Context) error {
	var req dto.EnqueueJobRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	jobID, err := h.worker.Enqueue(req)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusAccepted, echo.Map{"job_id": jobID})
}

// GetStatus reports the queue length and lifetime job counters.
func (h *JobHandler) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.worker.Status())
}

// GetStats reports processing metrics over the recent-results window.
func (h *JobHandler) GetStats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.worker.Stats())
}

// GetRecentResults returns the in-memory window of processed executions.
func (h *JobHandler) GetRecentResults(c echo.Context) error {
	return c.JSON(http.StatusOK, h.worker.RecentResults())
}

// GetHistory returns persisted executions, newest first.
func (h *JobHandler) GetHistory(c echo.Context) error {
	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid limit"})
		}
		limit = parsed
	}

	executions, err := h.worker.History(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("Failed to load job history", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load job history"})
	}
	return c.JSON(http.StatusOK, executions)
}

// GetJob resolves one job's current state by its ID.
func (h *JobHandler) GetJob(c echo.Context) error {
	execution, err := h.worker.GetJobStatus(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Job not found"})
		}
		h.logger.Error("Failed to load job status", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load job status"})
	}
	return c.JSON(http.StatusOK, execution)
}
