// Package server provides the headless HTTP API for browsing matches and
// opportunities and triggering scans.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/quantship/crossarb/internal/domain"
	"github.com/quantship/crossarb/internal/server/handler"
	"github.com/quantship/crossarb/internal/server/middleware"
)

// Default per-client request budget when a rate limiter is attached.
const (
	defaultRateLimit  = 120
	defaultRateWindow = time.Minute
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string             // if empty, authentication is disabled
	Limiter     domain.RateLimiter // if nil, per-client rate limiting is disabled
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health        *handler.HealthHandler
	Matches       *handler.MatchHandler
	Opportunities *handler.OpportunityHandler
	Status        *handler.StatusHandler
	Scan          *handler.ScanHandler
}

// Server is the headless HTTP API server.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux
// and the middleware chain (logging, CORS, auth) applied.
func NewServer(cfg Config, handlers Handlers, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	mux.HandleFunc("GET /api/matches", handlers.Matches.ListMatches)
	mux.HandleFunc("GET /api/matches/{id}", handlers.Matches.GetMatch)

	mux.HandleFunc("GET /api/opportunities/recent", handlers.Opportunities.ListRecent)
	mux.HandleFunc("GET /api/opportunities/open", handlers.Opportunities.ListOpen)

	mux.HandleFunc("GET /api/status", handlers.Status.GetStatus)

	if handlers.Scan != nil {
		mux.HandleFunc("POST /api/scan/trigger", handlers.Scan.Trigger)
	}

	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey)(h)
	if cfg.Limiter != nil {
		h = middleware.RateLimit(cfg.Limiter, defaultRateLimit, defaultRateWindow)(h)
	}
	h = middleware.Logging(logger)(h)
	h = corsMiddleware(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

// corsMiddleware returns middleware that sets CORS headers for the allowed
// origins. If no origins are specified, it defaults to allowing all origins.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" {
				allowed := len(allowedOrigins) == 0 // allow all if none specified
				for _, o := range allowedOrigins {
					if strings.EqualFold(o, "*") || strings.EqualFold(o, origin) {
						allowed = true
						break
					}
				}

				if allowed {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
					w.Header().Set("Access-Control-Max-Age", "86400")
				}
			}

			// Handle preflight requests.
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
