package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"studio/internal/events"
	"studio/internal/http/handlers"
	"studio/internal/infra"
	"studio/internal/middleware"
)

func NewRouter(cfg *infra.Config, app *handlers.App, hub *events.Hub) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Log),
		middleware.CORS(cfg.CORSOrigins),
		middleware.Locale(cfg.DefaultLocale),
		middleware.RateLimit(cfg.RateLimitPerMin, time.Minute),
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/jobs", func(r chi.Router) {
		r.Post("/", app.JobsEnqueue)
		r.Get("/", app.JobsList)
		r.Post("/{id}/retry", app.JobsRetry)
		r.Delete("/{id}", app.JobsCancel)
	})

	r.Route("/v1/results", func(r chi.Router) {
		r.Get("/", app.ResultsList)
		r.Get("/export", app.ResultsExport)
		r.Delete("/{id}", app.ResultsDelete)
		r.Delete("/", app.ResultsClear)
	})

	r.Route("/v1/credentials/gemini", func(r chi.Router) {
		r.Get("/", app.CredentialStatus)
		r.Put("/", app.CredentialSet)
	})

	r.Get("/v1/events", hub.Handle)

	return r
}
