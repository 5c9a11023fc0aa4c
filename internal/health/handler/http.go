// Package handler serves readiness for load balancers and orchestration.
package handler

import (
	"context"
	"net/http"
	"time"

	"quakeguard/backend/internal/server/httpx"
)

// Pinger reports database connectivity (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// CachePinger reports cache connectivity (e.g. the Redis counter client).
type CachePinger interface {
	Ping(ctx context.Context) error
}

// Handler serves GET /health. Nil dependencies are skipped, so dev mode with
// the in-process queue and cache still reports healthy.
type Handler struct {
	db    Pinger
	cache CachePinger
}

// NewHandler returns a health handler checking the given dependencies.
func NewHandler(db Pinger, cache CachePinger) *Handler {
	return &Handler{db: db, cache: cache}
}

// Check pings the database and cache with a short deadline. Any failure
// degrades the response to 503 with per-dependency detail.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			checks["database"] = err.Error()
			healthy = false
		} else {
			checks["database"] = "ok"
		}
	}
	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			checks["cache"] = err.Error()
			healthy = false
		} else {
			checks["cache"] = "ok"
		}
	}

	status := http.StatusOK
	state := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}
	httpx.JSON(w, status, map[string]any{"status": state, "checks": checks})
}
