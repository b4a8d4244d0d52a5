package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/spherical/pdf-cropper/cmd/pdf-cropper-api/handlers"
	"github.com/spherical/pdf-cropper/cmd/pdf-cropper-api/middleware"
	"github.com/spherical/pdf-cropper/internal/observability"
)

// AppConfig holds the router settings.
type AppConfig struct {
	RequestTimeout time.Duration
	AllowedOrigins []string
	Defaults       handlers.Defaults
	AuthConfig     middleware.AuthConfig
}

// NewRouter creates the API router with all routes configured.
func NewRouter(logger *observability.Logger, manager handlers.JobManager, cfg *AppConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(chimiddleware.Timeout(cfg.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"pdf-cropper"}`))
	})

	jobsHandler := handlers.NewJobsHandler(logger, manager, cfg.Defaults)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.AuthConfig))

		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", jobsHandler.Submit)
			r.Get("/", jobsHandler.List)
			r.Get("/{jobId}", jobsHandler.Get)
		})
	})

	return r
}
