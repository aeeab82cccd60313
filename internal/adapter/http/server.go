// Package http exposes the chart service's operational surface: liveness,
// readiness gated on the pipeline having produced at least one payload,
// and the Prometheus scrape endpoint.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/tide-chart-service/internal/domain"
)

const serviceName = "tide-chart-service"

// readinessProbeTimeout bounds a single readiness check so a wedged
// pipeline cannot hang the kubelet probe.
const readinessProbeTimeout = 2 * time.Second

// ReadinessChecker reports whether the pipeline is ready to serve chart
// payloads. The pipeline satisfies this once its first batch has loaded.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server is the operational HTTP endpoint for a chartd instance.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	started    time.Time
}

// NewServer wires /healthz, /readyz, and /metrics onto the given address.
func NewServer(addr string, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger:  logger,
		started: domain.Now(),
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("ops server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleHealth is pure liveness: the process is up. It never consults the
// pipeline, so a broker outage does not get the pod killed.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respond(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"service":        serviceName,
		"uptime_seconds": int64(domain.Now().Sub(s.started).Seconds()),
	})
}

func (s *Server) handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessProbeTimeout)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			s.respond(w, http.StatusServiceUnavailable, map[string]any{
				"status": "unavailable",
				"reason": err.Error(),
			})
			return
		}
		s.respond(w, http.StatusOK, map[string]any{"status": "ready"})
	}
}

func (s *Server) respond(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("ops response write failed", "error", err)
	}
}
