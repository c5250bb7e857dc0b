package handlers

import (
	"context"
	"net/http"
	"time"
)

const checkTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and readiness. The database gates
// readiness; the cache only reports degraded, since tenant lookups fall
// back to the database without it. Nil dependencies are skipped.
type HealthHandler struct {
	db    Pinger
	cache Pinger
}

func NewHealthHandler(db, cache Pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	status, overall := http.StatusOK, "ok"

	if err := ping(r.Context(), h.db); err != nil {
		checks["database"] = "unhealthy: " + err.Error()
		status, overall = http.StatusServiceUnavailable, "unhealthy"
	} else if h.db != nil {
		checks["database"] = "ok"
	}

	if err := ping(r.Context(), h.cache); err != nil {
		checks["redis"] = "degraded: " + err.Error()
		if overall == "ok" {
			overall = "degraded"
		}
	} else if h.cache != nil {
		checks["redis"] = "ok"
	}

	writeJSON(w, status, map[string]interface{}{"status": overall, "checks": checks})
}

func ping(ctx context.Context, p Pinger) error {
	if p == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	return p.Ping(ctx)
}
