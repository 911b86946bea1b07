package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/desertthunder/repertoire/internal/services"
	"github.com/desertthunder/repertoire/internal/shared"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, authentication, rate limiting, metrics, etc.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for groups of related endpoints (songs, instruments, evaluations, stats).
type Handler interface {
	Routes(r chi.Router) // Routes registers the handler's endpoints on r
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Server serves the JSON API.
type Server struct {
	config  *shared.Config
	router  *ChiRouter
	metrics *Metrics
	logger  *log.Logger
}

// New builds the full route tree.
//
// Health and metrics endpoints are public. Everything below /api is rate limited and requires the
// configured auth header.
func New(config *shared.Config, practice *services.Practice, logger *log.Logger) *Server {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	logger = shared.WithLogger(logger, "component", "server")
	metrics := NewMetrics()

	root := NewChiRouter()
	root.Use(
		middleware.RequestID,
		middleware.RealIP,
		RequestLogger(logger),
		Recoverer(logger),
		metrics.Handler,
	)
	root.Handle(http.MethodGet, "/healthz", http.HandlerFunc(health))
	root.Handle(http.MethodGet, "/metrics", metrics.Exposition())

	api := NewChiRouter()
	if config.RateLimit.Enabled {
		api.Use(NewRateLimiter(config.RateLimit.RPS, config.RateLimit.Burst, logger).Handler)
	}
	api.Use(Authenticate(practice, config.Auth.Header, logger))

	api.Handler(&SongHandler{practice: practice, logger: logger})
	api.Handler(&InstrumentHandler{practice: practice, logger: logger})
	api.Handler(&EvaluationHandler{practice: practice, logger: logger, metrics: metrics})
	api.Handler(&StatsHandler{practice: practice, logger: logger, recentLimit: config.Stats.RecentLimit})

	root.Mount("/api", api)

	return &Server{config: config, router: root, metrics: metrics, logger: logger}
}

// Handler returns the root [http.Handler].
func (s *Server) Handler() http.Handler { return s.router }

// Addr is the configured listen address.
func (s *Server) Addr() string { return s.config.Server.Addr() }

// ListenAndServe serves until ctx is cancelled, then drains in-flight requests within the configured
// shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout.Duration,
		WriteTimeout: s.config.Server.WriteTimeout.Duration,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := s.config.Server.ShutdownTimeout.Duration
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("shutting down", "timeout", timeout)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

func health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}
