package handlers

import (
	"context"
	"net/http"
	"time"
)

type HealthHandler struct {
	dbPing func(context.Context) error
}

func NewHealthHandler(dbPing func(context.Context) error) *HealthHandler {
	return &HealthHandler{dbPing: dbPing}
}

// Liveness handles GET /health/live. Always OK while the process runs.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// Readiness handles GET /health. Fails when the database is down.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if h.dbPing != nil {
		if err := h.dbPing(ctx); err != nil {
			respondJSON(w, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			}, http.StatusServiceUnavailable)
			return
		}
	}

	respondJSON(w, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	}, http.StatusOK)
}
