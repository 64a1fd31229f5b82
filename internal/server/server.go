// Package server exposes the monitor's state and control surface over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/polysport/arbmon/internal/server/handler"
	"github.com/polysport/arbmon/internal/server/middleware"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health     *handler.HealthHandler
	Status     *handler.StatusHandler
	Orderbooks *handler.OrderbookHandler
	Arb        *handler.ArbHandler
	Executions *handler.ExecutionHandler
	Logs       *handler.LogsHandler
	Control    *handler.ControlHandler
}

// Server is the headless HTTP API server for the arbitrage monitor.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux
// and the middleware chain (CORS, logging, auth) applied.
func NewServer(cfg Config, handlers Handlers, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check (no auth required behind the chain; auth covers it too
	// when an API key is configured).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Monitor state.
	mux.HandleFunc("GET /api/status", handlers.Status.GetStatus)
	mux.HandleFunc("GET /api/orderbooks", handlers.Orderbooks.ListOrderbooks)
	mux.HandleFunc("GET /api/orderbooks/{id}/history", handlers.Orderbooks.GetHistory)
	mux.HandleFunc("GET /api/extremes", handlers.Orderbooks.ListExtremes)

	// Detection output.
	mux.HandleFunc("GET /api/totals", handlers.Arb.ListTotals)
	mux.HandleFunc("GET /api/opportunities", handlers.Arb.ListOpportunities)

	// Execution log.
	mux.HandleFunc("GET /api/executions", handlers.Executions.ListExecutions)
	mux.HandleFunc("GET /api/executions/stats", handlers.Executions.GetStats)

	// Retained logs.
	mux.HandleFunc("GET /api/logs", handlers.Logs.ListLogs)

	// Control surface.
	mux.HandleFunc("POST /api/control/start", handlers.Control.Start)
	mux.HandleFunc("POST /api/control/stop", handlers.Control.Stop)
	mux.HandleFunc("GET /api/events", handlers.Control.ListEvents)
	mux.HandleFunc("POST /api/events", handlers.Control.Subscribe)
	mux.HandleFunc("DELETE /api/events/{id}", handlers.Control.Unsubscribe)
	mux.HandleFunc("POST /api/events/discover", handlers.Control.Discover)

	// Build the middleware chain.
	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey)(h)
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

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

// Shutdown gracefully shuts down the server, waiting for in-flight
// requests to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
