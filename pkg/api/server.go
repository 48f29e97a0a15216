// Package api serves the read-only cluster status API: a health check,
// a REST status snapshot, a Prometheus scrape endpoint, and the
// GraphQL endpoint defined in pkg/graphql. It never accepts writes —
// the only way to affect the cluster is through the wire protocol in
// pkg/transport.
package api

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shouc/distfuzz/pkg/auth"
	"github.com/shouc/distfuzz/pkg/cluster"
	"github.com/shouc/distfuzz/pkg/graphql"
	"github.com/shouc/distfuzz/pkg/logging"
	"github.com/shouc/distfuzz/pkg/metrics"
)

// systemMetricsInterval is how often Start refreshes the uptime/goroutine/
// memory gauges while it runs.
const systemMetricsInterval = 10 * time.Second

// Server is the rank-0 status HTTP server.
type Server struct {
	coordinator *cluster.Coordinator
	worldSize   int
	validator   auth.TokenValidator
	metrics     *metrics.Registry
	logger      logging.Logger
	startTime   time.Time

	httpServer *http.Server
}

// NewServer builds a Server bound to coordinator. validator authenticates
// the protected /graphql and /status endpoints; it may be nil to run the
// status API with no authentication (development/local-transport runs).
func NewServer(coordinator *cluster.Coordinator, worldSize int, validator auth.TokenValidator, registry *metrics.Registry, logger logging.Logger) *Server {
	if registry == nil {
		registry = metrics.NewRegistry()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Server{
		coordinator: coordinator,
		worldSize:   worldSize,
		validator:   validator,
		metrics:     registry,
		logger:      logger,
		startTime:   time.Now(),
	}
}

func (s *Server) protect(next http.HandlerFunc) http.HandlerFunc {
	if s.validator == nil {
		return next
	}
	return auth.RequireRole(s.validator, auth.RoleOperator, next)
}

// Handler builds the full middleware-wrapped mux, exported so tests can
// exercise it with httptest.NewServer without going through Start/Stop.
func (s *Server) Handler() (http.Handler, error) {
	schema, err := graphql.GenerateSchema(s.coordinator, s.worldSize)
	if err != nil {
		return nil, fmt.Errorf("api: generate graphql schema: %w", err)
	}
	graphqlHandler := graphql.NewGraphQLHandler(schema, s.logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.GetPrometheusRegistry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/status", s.protect(s.handleStatus))
	mux.HandleFunc("/graphql", s.protect(graphqlHandler.ServeHTTP))

	return s.corsMiddleware(s.loggingMiddleware(s.panicRecoveryMiddleware(mux))), nil
}

// Start listens on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("status api listening", logging.String("addr", addr))

	errCh := make(chan error, 1)
	go func() { errCh <- s.httpServer.ListenAndServe() }()
	go s.updateSystemMetrics(ctx)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// updateSystemMetrics refreshes the uptime/goroutine/memory gauges on a
// fixed tick until ctx is cancelled.
func (s *Server) updateSystemMetrics(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.metrics.UptimeSeconds.Set(time.Since(s.startTime).Seconds())
			s.metrics.GoRoutines.Set(float64(runtime.NumGoroutine()))

			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			s.metrics.MemoryAllocBytes.Set(float64(m.Alloc))
			s.metrics.MemorySysBytes.Set(float64(m.Sys))
		}
	}
}
