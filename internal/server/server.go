// Package server собирает relay-сервер: хранилище объектов, обработчики
// корня синхронизации и цепочку middleware.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iudanet/confsync/internal/metrics"
	"github.com/iudanet/confsync/internal/server/handlers"
	"github.com/iudanet/confsync/internal/server/middleware"
	"github.com/iudanet/confsync/internal/server/storage/sqlite"
	"github.com/iudanet/confsync/internal/transport"
)

// Config параметры relay-сервера
type Config struct {
	Addr            string
	Version         string
	JWT             handlers.JWTConfig
	RateLimit       int
	RateWindow      time.Duration
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration
	StatsInterval   time.Duration
}

// Server relay-сервер одного корня синхронизации
type Server struct {
	cfg     Config
	logger  *slog.Logger
	store   *sqlite.Storage
	metrics *metrics.Server
	limiter *middleware.RateLimiter
	handler http.Handler
}

// New создает сервер поверх sqlite хранилища
func New(cfg Config, logger *slog.Logger, store *sqlite.Storage) *Server {
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = time.Minute
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.StatsInterval <= 0 {
		cfg.StatsInterval = 30 * time.Second
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		metrics: metrics.NewServer(reg),
	}

	root := transport.NewBlob(store, logger)
	objects := handlers.NewObjectsHandler(logger, root, cfg.MaxBodyBytes)
	health := handlers.NewHealthHandler(logger, store.DB(), cfg.Version)

	api := http.NewServeMux()
	api.HandleFunc("GET /api/v1/manifest", objects.GetManifest)
	api.HandleFunc("PUT /api/v1/manifest", objects.PutManifest)
	api.HandleFunc("GET /api/v1/snapshot", objects.GetSnapshot)
	api.HandleFunc("PUT /api/v1/snapshot", objects.PutSnapshot)
	api.HandleFunc("GET /api/v1/operations", objects.ListOperations)
	api.HandleFunc("POST /api/v1/operations/{device}", objects.AppendOperations)
	api.HandleFunc("DELETE /api/v1/operations/{device}", objects.PruneOperations)
	api.HandleFunc("GET /api/v1/reset/preview", objects.PreviewReset)
	api.HandleFunc("POST /api/v1/reset", objects.Reset)

	var protected http.Handler = api
	if cfg.RateLimit > 0 {
		s.limiter = middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow, logger)
		protected = middleware.RateLimitMiddleware(s.limiter, logger)(protected)
	}
	protected = middleware.AuthMiddleware(logger, cfg.JWT, store)(protected)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/health", health.Health)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.Handle("/api/v1/", protected)

	var handler http.Handler = mux
	handler = middleware.MetricsMiddleware(s.metrics)(handler)
	handler = middleware.RecoveryMiddleware(logger)(handler)
	handler = middleware.LoggingMiddleware(logger, "/api/v1/health", "/metrics")(handler)
	s.handler = handler

	return s
}

// Handler возвращает корневой HTTP handler сервера
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run слушает cfg.Addr до отмены ctx, затем корректно завершает запросы
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve обслуживает запросы на ln до отмены ctx
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	statsCtx, stopStats := context.WithCancel(ctx)
	defer stopStats()
	go s.collectStats(statsCtx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Relay server listening", "addr", ln.Addr().String(), "version", s.cfg.Version)
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.stop()
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down relay server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	s.stop()
	if err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func (s *Server) stop() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

// collectStats периодически обновляет метрики размера хранилища
func (s *Server) collectStats(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.StatsInterval)
	defer ticker.Stop()

	for {
		s.refreshStats(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) refreshStats(ctx context.Context) {
	count, size, err := s.store.TotalSize(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("Failed to collect storage stats", "error", err)
		}
		return
	}
	s.metrics.SetStoreSize(count, size)
}
