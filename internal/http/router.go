package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"shelfsearch/internal/chunkdb"
	"shelfsearch/internal/handlers"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Database *chunkdb.Database
	Embedder chunkdb.Embedder
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(CORS)

	searchHandler := handlers.NewSearchHandler(deps.Database, deps.Embedder)
	statsHandler := handlers.NewStatsHandler(deps.Database)

	r.Route("/api/v1", func(r chi.Router) {
		r.Method(http.MethodPost, "/search", searchHandler)
		r.Method(http.MethodGet, "/stats", statsHandler)
	})

	r.Get("/healthz", handlers.Health)

	return r
}
