// Package server wires the password API handlers into an HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/passgen/passgen/internal/config"
	"github.com/passgen/passgen/internal/handlers"
	"github.com/passgen/passgen/internal/metrics"
	"github.com/passgen/passgen/internal/middleware"
	"github.com/passgen/passgen/internal/ratelimit"
	"github.com/passgen/passgen/internal/services"
	"github.com/passgen/passgen/pkg/logger"
)

// Option configures a Server.
type Option func(*Server)

// WithRateLimiter uses l instead of the in-memory limiter built from config.
// The server closes l on shutdown.
func WithRateLimiter(l ratelimit.Limiter) Option {
	return func(s *Server) { s.rateLimiter = l }
}

// WithReadyCheck adds a dependency check to /ready.
func WithReadyCheck(name string, check handlers.CheckFunc) Option {
	return func(s *Server) { s.checks = append(s.checks, readyCheck{name: name, fn: check}) }
}

// WithShutdownHook runs fn after the HTTP server has stopped. Hooks run in
// registration order.
func WithShutdownHook(name string, fn func(ctx context.Context) error) Option {
	return func(s *Server) { s.hooks = append(s.hooks, hook{name: name, fn: fn}) }
}

// WithVersion sets the version reported by /health.
func WithVersion(version string) Option {
	return func(s *Server) { s.version = version }
}

type readyCheck struct {
	name string
	fn   handlers.CheckFunc
}

type hook struct {
	name string
	fn   func(ctx context.Context) error
}

// Server represents the HTTP server.
type Server struct {
	cfg             *config.Config
	log             *logger.Logger
	httpServer      *http.Server
	healthHandler   *handlers.HealthHandler
	passwordHandler *handlers.PasswordHandler
	statsHandler    *handlers.StatsHandler
	rateLimiter     ratelimit.Limiter
	hooks           []hook
	checks          []readyCheck
	version         string

	listener net.Listener
	running  bool
	mu       sync.RWMutex
}

// New creates a Server serving passwords and stats.
func New(cfg *config.Config, log *logger.Logger, passwords services.PasswordService, stats services.StatsService, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:             cfg,
		log:             log,
		passwordHandler: handlers.NewPasswordHandler(passwords),
		statsHandler:    handlers.NewStatsHandler(stats),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.healthHandler = handlers.NewHealthHandler(s.version)
	for _, c := range s.checks {
		s.healthHandler.AddCheck(c.name, c.fn)
	}

	if cfg.Rate.Enabled && s.rateLimiter == nil {
		l, err := ratelimit.NewMemoryLimiter(ratelimit.Config{
			Requests: cfg.Rate.Requests,
			Window:   cfg.Rate.Window,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limiter: %w", err)
		}
		s.rateLimiter = l
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      s.buildMiddlewareChain().Then(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s, nil
}

// buildMiddlewareChain returns the chain shared by every route.
func (s *Server) buildMiddlewareChain() middleware.Chain {
	if s.rateLimiter != nil {
		s.log.Info("rate limiting enabled",
			"backend", s.cfg.Rate.Backend,
			"requests", s.cfg.Rate.Requests,
			"window", s.cfg.Rate.Window.String(),
		)
	}

	return middleware.New(
		middleware.Recover(s.log),
		middleware.Metrics(),
		middleware.RequestID(),
		middleware.ClientIP(s.cfg.Rate.TrustProxy, nil),
		middleware.Logging(s.log),
	).WithIf(s.rateLimiter != nil, func() middleware.Middleware {
		return middleware.RateLimit(s.rateLimiter, middleware.RateLimitConfig{
			TrustProxy:   s.cfg.Rate.TrustProxy,
			APIKeyHeader: s.cfg.Rate.APIKeyHeader,
			Log:          s.log,
		})
	})
}

// registerRoutes sets up the HTTP routes. Responses that carry passwords or
// usage data are marked no-store.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.healthHandler.Health)
	mux.HandleFunc("GET /ready", s.healthHandler.Ready)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/v1/charsets", s.passwordHandler.Charsets)

	private := middleware.New(middleware.NoStore())
	private.Route(mux, "POST /api/v1/passwords", s.passwordHandler.Generate)
	private.Route(mux, "GET /api/v1/stats", s.statsHandler.GetStats)
}

// Handler returns the root handler including middleware.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Listen binds the configured address. Port 0 picks a free port; see Addr.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.cfg.Server.Address())
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	return nil
}

// Serve accepts connections on the listener created by Listen. It blocks
// until Shutdown is called.
func (s *Server) Serve() error {
	s.mu.Lock()
	listener := s.listener
	if listener == nil {
		s.mu.Unlock()
		return errors.New("server is not listening")
	}
	s.running = true
	s.mu.Unlock()

	s.log.Info("server starting", "address", listener.Addr().String())

	err := s.httpServer.Serve(listener)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Start listens and serves.
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Shutdown flips readiness, drains connections, closes the rate limiter and
// runs shutdown hooks. Every step runs even if an earlier one failed; the
// first error is returned.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("server shutting down")
	s.healthHandler.SetReady(false)

	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		s.log.Error("shutdown error", "error", err.Error())
	}

	if s.rateLimiter != nil {
		if closeErr := s.rateLimiter.Close(); closeErr != nil {
			s.log.Error("failed to close rate limiter", "error", closeErr.Error())
			err = cmpErr(err, closeErr)
		}
	}

	for _, h := range s.hooks {
		if hookErr := h.fn(ctx); hookErr != nil {
			s.log.Error("shutdown hook failed", "hook", h.name, "error", hookErr.Error())
			err = cmpErr(err, hookErr)
		}
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	if err == nil {
		s.log.Info("server stopped")
	}
	return err
}

// cmpErr keeps the first non-nil error.
func cmpErr(first, next error) error {
	if first != nil {
		return first
	}
	return next
}

// IsRunning returns whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the bound address, or "" before Listen.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// HealthHandler returns the health handler.
func (s *Server) HealthHandler() *handlers.HealthHandler {
	return s.healthHandler
}

// RateLimiter returns the active limiter, or nil when rate limiting is off.
func (s *Server) RateLimiter() ratelimit.Limiter {
	return s.rateLimiter
}
