package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lkimdaryl/foodjournal-backend/internal/core/domain"
)

// SweepReporter exposes the outcome of the most recent maintenance pass.
type SweepReporter interface {
	LastSweep() domain.SweepReport
}

type readinessCheck struct {
	name  string
	check func(ctx context.Context) error
}

// HealthOption customises the health handler.
type HealthOption func(*HealthHandler)

// WithReadinessCheck registers a named dependency probe for /readyz.
func WithReadinessCheck(name string, check func(ctx context.Context) error) HealthOption {
	return func(h *HealthHandler) {
		if name == "" || check == nil {
			return
		}
		h.checks = append(h.checks, readinessCheck{name: name, check: check})
	}
}

// WithSweepReporter surfaces sweep visibility on the health endpoint.
func WithSweepReporter(sweeps SweepReporter) HealthOption {
	return func(h *HealthHandler) {
		h.sweeps = sweeps
	}
}

// HealthHandler exposes liveness and readiness information.
type HealthHandler struct {
	startedAt time.Time
	sweeps    SweepReporter
	checks    []readinessCheck
}

// NewHealthHandler builds a new health handler instance.
func NewHealthHandler(opts ...HealthOption) *HealthHandler {
	h := &HealthHandler{startedAt: time.Now().UTC()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Status returns service liveness plus the last sweep timestamp and count.
func (h *HealthHandler) Status(c *gin.Context) {
	response := HealthResponse{
		Status:    "ok",
		StartedAt: h.startedAt,
	}

	if h.sweeps != nil {
		report := h.sweeps.LastSweep()
		if !report.RanAt.IsZero() {
			ranAt := report.RanAt
			response.LastSweepAt = &ranAt
			response.LastSweepDeleted = report.Deleted
		}
	}

	c.JSON(http.StatusOK, response)
}

// Readiness probes registered dependencies and reports per-check status.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for _, probe := range h.checks {
		if err := probe.check(ctx); err != nil {
			results[probe.name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[probe.name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "degraded"
	}

	c.JSON(status, gin.H{
		"status": state,
		"checks": results,
	})
}
