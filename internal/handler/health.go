package handler

import (
	"context"
	"net/http"
	"time"
)

// Pinger is anything whose reachability the readiness probe checks.
// repository.Store satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	store Pinger
}

func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

// HandleLiveness confirms the process is up.
//
// HTTP: GET /healthz
func (h *HealthHandler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type readinessResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
	Error  string `json:"error,omitempty"`
}

// HandleReadiness reports whether the store answers.
//
// HTTP: GET /readyz
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, readinessResponse{
			Status: "unavailable",
			Store:  "unhealthy",
			Error:  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, readinessResponse{Status: "ok", Store: "ok"})
}
