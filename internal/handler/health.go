package handler

import (
	"net/http"
	"time"
)

// HandleHealth is the liveness probe.
//
// HTTP: GET /health
//
// Deliberately dependency-free: it answers whether the process is up, not
// whether the database or Stripe are reachable.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}
