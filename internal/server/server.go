// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer: it connects handlers, middleware, and
// routes, and decides how the server starts and stops.
//
// DEPENDENCY INJECTION FLOW:
// main.go creates:
//   config → logger → metrics → httpapi repository → Server
//   Server.New() creates: renderer → session store (one service.Client per
//   visitor, all sharing the repository) → handlers
//
// This is the "composition root" pattern: every dependency is wired here and
// in main, not scattered across the packages.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/sakif/car-listing/internal/handler"
	"github.com/sakif/car-listing/internal/metrics"
	"github.com/sakif/car-listing/internal/middleware"
	"github.com/sakif/car-listing/internal/render"
	"github.com/sakif/car-listing/internal/repository"
	"github.com/sakif/car-listing/internal/service"
	"github.com/sakif/car-listing/internal/session"
)

// limiterIdle is how long a client IP may stay quiet before its rate limit
// bucket is dropped.
const limiterIdle = 10 * time.Minute

// Config holds server configuration.
type Config struct {
	Port            int
	RateLimitPerSec float64
	RateLimitBurst  int
	SessionSecret   string
	SessionTTL      time.Duration
}

// Server represents the HTTP server and all its dependencies.
type Server struct {
	router  *chi.Mux
	config  Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	store   *session.Store
	lookup  *service.Client
	limiter *middleware.IPRateLimiter
}

// New builds the server around a cars repository. Every visitor gets their
// own service.Client, but they all share repo and its HTTP connection pool.
func New(cfg Config, repo repository.CarRepository, m *metrics.Metrics, logger *slog.Logger) (*Server, error) {
	tokens, err := session.NewTokenService(cfg.SessionSecret)
	if err != nil {
		return nil, fmt.Errorf("creating session tokens: %w", err)
	}
	renderer, err := render.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		metrics: m,
		store: session.NewStore(cfg.SessionTTL, func() *service.Client {
			return service.NewClient(repo, nil, logger)
		}),
		lookup:  service.NewClient(repo, nil, logger),
		limiter: middleware.NewIPRateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst),
	}
	s.setupRoutes(tokens, renderer)
	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET  /healthz              → liveness (no session)
// GET  /metrics              → Prometheus exposition (no session)
// GET  /static/*             → embedded CSS (no session)
// GET  /                     → index page
// POST /filters              → set filters and sort
// POST /filters/clear        → clear them
// POST /refresh              → reload the list
// POST /cars                 → create or update (multipart)
// GET  /cars/{id}            → index with the detail modal open
// POST /cars/{id}/edit       → load the record into the form
// POST /form/cancel          → back to Create
// GET  /cars/{id}/delete     → confirmation page
// POST /cars/{id}/delete     → delete once confirmed
// GET  /view.json            → JSON snapshot of an existing session (never starts one)
// GET  /api/cars/{id}        → one record as JSON (no session)
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID, RealIP, Recoverer: chi built-ins
// 2. Logger: one line per request
// 3. RateLimit: per client IP, after RealIP so proxied clients differ
// 4. Metrics: counts by route pattern
// 5. Session: only on the page routes; /view.json resumes one but never starts one
func (s *Server) setupRoutes(tokens *session.TokenService, renderer *render.Renderer) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.RateLimit(s.limiter, s.logger))
	s.router.Use(middleware.Metrics(s.metrics))

	s.router.Get("/healthz", handler.HandleHealth)
	s.router.Handle("/metrics", s.metrics.Handler())
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(render.Static())))

	pages := handler.NewPageHandler(renderer, s.logger)
	api := handler.NewAPIHandler(s.lookup)

	s.router.Get("/api/cars/{id}", api.HandleCar)
	s.router.With(session.Resume(tokens, s.store, s.logger)).Get("/view.json", api.HandleView)

	s.router.Group(func(r chi.Router) {
		r.Use(session.Middleware(tokens, s.store, s.logger))

		r.Get("/", pages.HandleIndex)
		r.Post("/filters", pages.HandleFilters)
		r.Post("/filters/clear", pages.HandleClearFilters)
		r.Post("/refresh", pages.HandleRefresh)
		r.Post("/form/cancel", pages.HandleCancel)

		r.Route("/cars", func(r chi.Router) {
			r.Post("/", pages.HandleSubmit)
			r.Get("/{id}", pages.HandleDetails)
			r.Post("/{id}/edit", pages.HandleEdit)
			r.Get("/{id}/delete", pages.HandleConfirmDelete)
			r.Post("/{id}/delete", pages.HandleDelete)
		})
	})
}

// Handler exposes the router, mainly so tests can drive it with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions reports how many visitor sessions are live.
func (s *Server) Sessions() int {
	return s.store.Len()
}

// Start serves until SIGINT/SIGTERM, then shuts down gracefully.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new connections
// 2. Wait up to 30s for in-flight requests (a save may be mid-call to the API)
// 3. Return
func (s *Server) Start() error {
	// WriteTimeout is generous: a submit waits on the API twice, save then reload.
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go s.limiter.RunSweeper(sweepCtx, time.Minute, limiterIdle)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.Duration("session_ttl", s.config.SessionTTL),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
