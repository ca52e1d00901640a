// Package api provides the admin HTTP API and WebSocket server for the
// twin topology proxy.
//
// It exposes cache statistics and manual eviction, the change-event
// journal, component health, and a live invalidation feed over
// WebSocket. The server follows the same lifecycle pattern as other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/twinproxy/internal/infrastructure/config"
	"github.com/nerrad567/twinproxy/internal/infrastructure/logging"
	"github.com/nerrad567/twinproxy/internal/journal"
	"github.com/nerrad567/twinproxy/internal/resolver"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// HealthChecker reports whether a component is healthy.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Security config.SecurityConfig
	Logger   *logging.Logger
	Devices  *resolver.DeviceResolver
	Spaces   *resolver.SpaceResolver
	Journal  journal.Repository       // nil when journaling is disabled
	Checks   map[string]HealthChecker // named component health checks
	Version  string
}

// Server is the admin HTTP API server.
//
// It manages the HTTP listener, routes, middleware, and the WebSocket
// invalidation hub. The server is created with New() and started with
// Start().
type Server struct {
	cfg     config.APIConfig
	secCfg  config.SecurityConfig
	logger  *logging.Logger
	devices *resolver.DeviceResolver
	spaces  *resolver.SpaceResolver
	journal journal.Repository
	checks  map[string]HealthChecker
	version string

	server *http.Server
	hub    *Hub
	cancel context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, resolvers)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Devices == nil || deps.Spaces == nil {
		return nil, fmt.Errorf("device and space resolvers are required")
	}

	return &Server{
		cfg:     deps.Config,
		secCfg:  deps.Security,
		logger:  deps.Logger,
		devices: deps.Devices,
		spaces:  deps.Spaces,
		journal: deps.Journal,
		checks:  deps.Checks,
		version: deps.Version,
	}, nil
}

// Hub returns the WebSocket invalidation hub. Available after Start().
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start begins listening for HTTP connections.
//
// It builds the router, starts the WebSocket hub, and launches the
// HTTP listener in a background goroutine. The server can be stopped
// with Close().
//
// Parameters:
//   - ctx: Context for background goroutine cancellation
//
// Returns:
//   - error: If the server fails to start (port in use, etc.)
func (s *Server) Start(ctx context.Context) error {
	// Internal context so Close() can stop the hub independently of
	// the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.hub = NewHub(s.logger)
	go s.hub.Run(srvCtx)

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("admin API starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("admin API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete, then
// forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("admin API shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down admin API: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("admin API not started")
	}

	return nil
}
