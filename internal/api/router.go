package api

import (
	"net/http"

	"github.com/davidahmann/lexgen/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Service        *ContractService
	Auth           *auth.StaticToken
	AllowedOrigins []string
	Logger         *zap.Logger
	// MetricsHandler serves /metrics. Nil uses the default Prometheus registry.
	MetricsHandler http.Handler
}

// NewRouter mounts the contract API under /api next to /health and /metrics.
// When cfg.Auth is enabled every /api route except the info document needs
// the bearer token.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{Service: cfg.Service, logger: logger}

	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader, "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	r.Get("/health", h.Health)
	r.Handle("/metrics", metricsHandler)

	r.Route("/api", func(api chi.Router) {
		api.Get("/", h.Info)

		api.Group(func(g chi.Router) {
			if cfg.Auth.Enabled() {
				g.Use(auth.Middleware(cfg.Auth))
			}

			g.Post("/generate", h.Generate)
			g.Post("/validate", h.Validate)

			g.Get("/contracts", h.ListContracts)
			g.Get("/contracts/{id:[0-9]+}", h.GetContract)
			g.Put("/contracts/{id:[0-9]+}/status", h.UpdateStatus)
			g.Get("/contracts/{id:[0-9]+}/bundle", h.Bundle)

			g.Post("/deploy/estimate-gas", h.EstimateGas)
			g.Post("/deploy/{id:[0-9]+}", h.PrepareDeployment)
			g.Post("/deploy/{id:[0-9]+}/confirm", h.ConfirmDeployment)
			g.Get("/deploy/{id:[0-9]+}/bytecode", h.Bytecode)
		})
	})

	return r
}
