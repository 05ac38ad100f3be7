package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammed-shakir/geohash-codec/internal/core/config"
	"github.com/mohammed-shakir/geohash-codec/internal/core/health"
	middleware "github.com/mohammed-shakir/geohash-codec/internal/core/middleware"
	"github.com/mohammed-shakir/geohash-codec/internal/core/router"
)

// Service is what the http layer needs from the codec.
type Service interface {
	router.CodecHandler
	health.ReadinessReporter
}

// NewRouter wires routes; a nil metrics handler falls back to the default registry.
func NewRouter(cfg config.Config, logger *slog.Logger, svc Service, metrics http.Handler) http.Handler {
	if metrics == nil {
		metrics = promhttp.Handler()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS())

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(svc))
	r.Get("/metrics", metrics.ServeHTTP)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/encode", router.HandleEncode(logger, cfg, svc))
		r.Get("/decode", router.HandleDecode(logger, cfg, svc))
		r.Get("/cell", router.HandleCell(logger, cfg, svc))
	})
	return r
}

// sets up http and starts serving
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, svc Service, metrics http.Handler) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(cfg, logger, svc, metrics),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
