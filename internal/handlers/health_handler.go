package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// HealthChecker is satisfied by database.ConnectionManager
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler reports service and database health
type HealthHandler struct {
	db      HealthChecker
	mode    string
	logger  *logrus.Logger
	timeout time.Duration
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db HealthChecker, mode string, logger *logrus.Logger) *HealthHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &HealthHandler{db: db, mode: mode, logger: logger, timeout: 2 * time.Second}
}

// HealthResponse is the body of GET /api/health
type HealthResponse struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Mode     string `json:"mode"`
	Database string `json:"database"`
}

// @Summary Health check
// @Description Reports whether the service and its database are usable
// @Tags system
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:   "healthy",
		Service:  "viswords-api",
		Mode:     h.mode,
		Database: "ok",
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	if err := h.db.HealthCheck(ctx); err != nil {
		h.logger.WithError(err).Warn("Database health check failed")
		resp.Status = "unhealthy"
		resp.Database = "unavailable"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}

	c.JSON(http.StatusOK, resp)
}
