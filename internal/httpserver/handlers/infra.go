package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/swarm-homepage/internal/domain"
	"github.com/MrSnakeDoc/swarm-homepage/internal/httpserver/deps"
)

const pingTimeout = 2 * time.Second

type componentStatus struct {
	OK             bool   `json:"ok"`
	ServicesLoaded *int   `json:"services_loaded,omitempty"`
	LastRefresh    string `json:"last_refresh,omitempty"`
	Source         string `json:"source,omitempty"`
	Mode           string `json:"mode,omitempty"`
	Impact         string `json:"impact,omitempty"`
	Error          string `json:"error,omitempty"`
}

type infraResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"discovery": discoveryStatus(d),
			"docker":    pingStatus(r.Context(), d.Docker, d.Mode, "primary-source-down"),
			"redis":     pingStatus(r.Context(), d.Redis, "persistence", "no-last-known-good"),
		}

		writeJSON(w, d.Logger, http.StatusOK, infraResponse{
			Status:     overallStatus(components),
			Components: components,
		})
	}
}

func discoveryStatus(d deps.Deps) componentStatus {
	s := d.Snapshots.Snapshot()
	count := len(s.Services)

	st := componentStatus{
		OK:             s.LastError == nil && s.Generated(),
		ServicesLoaded: &count,
		LastRefresh:    "never",
		Source:         string(s.SourceUsed),
		Mode:           d.Mode,
	}
	if !s.CheckedAt.IsZero() {
		st.LastRefresh = s.CheckedAt.UTC().Format(time.RFC3339)
	}
	if s.LastError != nil {
		st.Error = s.LastError.Error()
		if count > 0 {
			st.Impact = "serving-stale-snapshot"
		} else {
			st.Impact = "dashboard-empty"
		}
	}
	if s.SourceUsed == domain.SourceFallback {
		st.Impact = "serving-proxy-fallback"
	}
	return st
}

// pingStatus reports a nil pinger as a disabled component, not a failure.
func pingStatus(ctx context.Context, p deps.Pinger, mode, impact string) componentStatus {
	if p == nil {
		return componentStatus{OK: true, Mode: "disabled"}
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := p.Ping(ctx); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   mode,
			Impact: impact,
			Error:  err.Error(),
		}
	}
	return componentStatus{OK: true, Mode: mode}
}

func overallStatus(components map[string]componentStatus) string {
	discovery := components["discovery"]
	if !discovery.OK && (discovery.ServicesLoaded == nil || *discovery.ServicesLoaded == 0) {
		return "critical"
	}
	for _, c := range components {
		if !c.OK {
			return "degraded"
		}
	}
	return "ok"
}
