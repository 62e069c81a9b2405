package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/swarm-homepage/internal/domain"
	"github.com/MrSnakeDoc/swarm-homepage/internal/export/homepage"
	"github.com/MrSnakeDoc/swarm-homepage/internal/httpserver/deps"
	"github.com/MrSnakeDoc/swarm-homepage/internal/logger"
)

type snapshotResponse struct {
	Services    []domain.ServiceDescriptor `json:"services"`
	SourceUsed  domain.SourceKind          `json:"source_used"`
	GeneratedAt string                     `json:"generated_at,omitempty"`
	CheckedAt   string                     `json:"checked_at,omitempty"`
	LastError   string                     `json:"last_error,omitempty"`
	Restored    bool                       `json:"restored"`
	Stale       bool                       `json:"stale"`
}

// Services returns the current service list as a JSON array.
func Services(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := d.Snapshots.Snapshot()
		writeJSON(w, d.Logger, http.StatusOK, s.Services)
	}
}

// Snapshot returns the current snapshot with its bookkeeping.
func Snapshot(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := d.Snapshots.Snapshot()

		resp := snapshotResponse{
			Services:    s.Services,
			SourceUsed:  s.SourceUsed,
			GeneratedAt: formatTime(s.GeneratedAt),
			CheckedAt:   formatTime(s.CheckedAt),
			Restored:    s.Restored,
			Stale:       s.Stale(),
		}
		if s.LastError != nil {
			resp.LastError = s.LastError.Error()
		}

		writeJSON(w, d.Logger, http.StatusOK, resp)
	}
}

// ServicesYAML renders the current snapshot as a Homepage services.yaml.
func ServicesYAML(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := homepage.Marshal(d.Snapshots.Snapshot().Services)
		if err != nil {
			d.Logger.Error("failed to render services yaml", logger.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		if _, err := w.Write(data); err != nil {
			d.Logger.Debug("failed to write response", logger.Error(err))
		}
	}
}

func writeJSON(w http.ResponseWriter, log logger.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug("failed to write response", logger.Error(err))
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
