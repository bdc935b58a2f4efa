package handlers

import (
	"context"
	"net/http"
	"time"
)

// HealthCheck reports one dependency's state
type HealthCheck func(ctx context.Context) (interface{}, error)

// HealthHandler aggregates dependency checks
type HealthHandler struct {
	service string
	checks  map[string]HealthCheck
}

// NewHealthHandler creates a health handler; checks may be empty
func NewHealthHandler(service string, checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{service: service, checks: checks}
}

// Health returns 503 when any dependency check fails
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]interface{}, len(h.checks))
	for name, check := range h.checks {
		detail, err := check(ctx)
		if err != nil {
			status = http.StatusServiceUnavailable
			deps[name] = map[string]string{"status": "down", "error": err.Error()}
			continue
		}
		deps[name] = detail
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	respondJSON(w, status, map[string]interface{}{
		"status":       overall,
		"service":      h.service,
		"dependencies": deps,
	})
}
