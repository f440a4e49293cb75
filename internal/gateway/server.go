package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(g.countRequests)

	// Public routes.
	r.Get("/health", g.handleHealth())
	r.Post("/add-user", g.handleAddUser())
	r.Get("/users", g.handleListUsers())
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws/runs", g.handleRunStream())

	// Admin routes. Auth is optional infrastructure; with no credentials
	// configured the group is open.
	r.Group(func(r chi.Router) {
		if g.config.Auth.IsConfigured() {
			r.Use(authMiddleware(g.config.Auth))
		}
		r.Get("/status", g.handleStatus())
		r.Route("/api", func(r chi.Router) {
			r.Get("/jobs", g.handleListJobs())
			r.Get("/runs", g.handleListRuns())
			r.Post("/reload", g.handleReload())
		})
	})

	return r
}
