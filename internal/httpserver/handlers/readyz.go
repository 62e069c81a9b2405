package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/swarm-homepage/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready bool `json:"ready"`
}

// Readyz reports ready once any snapshot exists, live or restored.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := d.Snapshots.Snapshot()
		ready := s.Generated() || s.Restored

		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, d.Logger, status, readyzResponse{Ready: ready})
	}
}
