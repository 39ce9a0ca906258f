// Package api serves decoded DBC tables as read-only JSON over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ssargent/dbckit/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

// NewRouter builds the HTTP handler for the table API. Metrics are
// registered with reg and exposed on /metrics.
func NewRouter(catalog Catalog, config ServerConfig, reg *prometheus.Registry, logger *logging.Logger) http.Handler {
	if logger == nil {
		logger = logging.NoopLogger()
	}
	metrics := NewMetrics(reg)
	server := NewServer(catalog, config, metrics, logger)

	origins := config.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-API-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apiKeyMiddleware(config.APIKey, metrics))

		r.Get("/health", metrics.InstrumentHandler("GET", "/api/v1/health", server.handleHealth))
		r.Get("/tables", metrics.InstrumentHandler("GET", "/api/v1/tables", server.handleListTables))
		r.Get("/tables/{name}", metrics.InstrumentHandler("GET", "/api/v1/tables/{name}", server.handleGetTable))
		r.Get("/tables/{name}/rows/{id}", metrics.InstrumentHandler("GET", "/api/v1/tables/{name}/rows/{id}", server.handleGetRow))
	})

	return r
}

// StartServer serves the table API on config.Addr until ctx is cancelled,
// then shuts down gracefully.
func StartServer(ctx context.Context, catalog Catalog, config ServerConfig, logger *logging.Logger) error {
	if logger == nil {
		logger = logging.NoopLogger()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := &http.Server{
		Addr:              config.Addr,
		Handler:           NewRouter(catalog, config, reg, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting table server", "addr", config.Addr, "tables", len(catalog.Names()), "auth", config.APIKey != "")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down table server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
