package handlers

import "net/http"

// HealthHandler responds with service health information.
type HealthHandler struct{}

// Handle implements GET /api/v1/healthcheck.
func (HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	respondData(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"}, "service healthy")
}
