package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/premiumbutcher/profile-api/internal/handler/dto"
)

// readinessTimeout bounds each dependency check.
const readinessTimeout = 3 * time.Second

// HealthChecker defines an interface for checking service health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler manages health check endpoints.
type HealthHandler struct {
	db       HealthChecker
	cache    HealthChecker
	identity bool
	logger   *slog.Logger
	now      func() time.Time
}

// NewHealthHandler creates a new HealthHandler. Pass nil for db or cache if
// they are not configured; identityReady reports whether the identity
// verifier was initialized.
func NewHealthHandler(db, cache HealthChecker, identityReady bool, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		db:       db,
		cache:    cache,
		identity: identityReady,
		logger:   logger,
		now:      time.Now,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz is a liveness probe endpoint. It performs no dependency checks.
//
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz is a readiness probe endpoint. It returns 200 only when every
// configured dependency answers. Failures are logged, never returned.
//
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{
		"postgres": h.check(r.Context(), "postgres", h.db),
		"redis":    h.check(r.Context(), "redis", h.cache),
	}

	status, code := "ok", http.StatusOK
	for _, v := range checks {
		if v == "unavailable" {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}
	}

	writeJSON(w, code, HealthResponse{Status: status, Checks: checks})
}

// Status reports service status in the shape the storefront has always
// polled: overall status, server time, database and identity state.
//
// GET /health
func (h *HealthHandler) Status(w http.ResponseWriter, r *http.Request) {
	database := "disconnected"
	if h.check(r.Context(), "postgres", h.db) == "ok" {
		database = "connected"
	}
	identity := "not configured"
	if h.identity {
		identity = "initialized"
	}

	writeJSON(w, http.StatusOK, dto.StatusResponse{
		Status:    "ok",
		Timestamp: h.now().UTC(),
		Database:  database,
		Identity:  identity,
	})
}

func (h *HealthHandler) check(ctx context.Context, name string, c HealthChecker) string {
	if c == nil {
		return "not configured"
	}

	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()

	if err := c.Ping(ctx); err != nil {
		h.logger.Warn("dependency check failed", "dependency", name, "error", err)
		return "unavailable"
	}
	return "ok"
}
