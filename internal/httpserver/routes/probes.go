package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/swarm-homepage/internal/httpserver/deps"
	"github.com/MrSnakeDoc/swarm-homepage/internal/httpserver/handlers"
)

func init() { Register(registerProbes) }

// Probes are not CIDR-filtered.
func registerProbes(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))
	r.Get("/health", handlers.Health(d))
	r.Get("/readyz", handlers.Readyz(d))
}
