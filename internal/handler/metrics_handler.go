package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gyh/gyh-api/internal/service"
	appErrors "github.com/gyh/gyh-api/pkg/errors"
	"github.com/gyh/gyh-api/pkg/response"
)

const (
	readyTimeout    = 2 * time.Second
	timestampLayout = "2006-01-02T15:04:05.000000-07:00"
)

// Pinger reports whether a backing store answers.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// MetricsHandler exposes health, readiness and Prometheus endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	db      Pinger
	loc     *time.Location
	now     func() time.Time
}

// NewMetricsHandler constructs a metrics handler. Health timestamps are rendered in loc.
func NewMetricsHandler(metrics *service.MetricsService, db Pinger, loc *time.Location) *MetricsHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &MetricsHandler{metrics: metrics, db: db, loc: loc, now: time.Now}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health godoc
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *MetricsHandler) Health(c *gin.Context) {
	response.Fields(c, http.StatusOK, "GyH API is running!", gin.H{
		"status":    "healthy",
		"timestamp": h.now().In(h.loc).Format(timestampLayout),
	})
}

// Ready godoc
// @Summary Readiness probe
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} response.Envelope
// @Router /ready [get]
func (h *MetricsHandler) Ready(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "database unavailable"))
			return
		}
	}
	response.Fields(c, http.StatusOK, "ready", gin.H{"status": "ready"})
}
