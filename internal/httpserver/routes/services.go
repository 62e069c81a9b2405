package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/swarm-homepage/internal/httpserver/deps"
	"github.com/MrSnakeDoc/swarm-homepage/internal/httpserver/handlers"
)

func init() { Register(registerServices) }

func registerServices(r chi.Router, d deps.Deps) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/services", handlers.Services(d))
		r.Get("/snapshot", handlers.Snapshot(d))
		r.Get("/services.yaml", handlers.ServicesYAML(d))
	})
}
