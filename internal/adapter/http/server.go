// Package http serves health, readiness, metrics and merge summaries.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/harryeslick/weather-tools-sub000/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SummaryProvider exposes the latest merge result per location.
type SummaryProvider interface {
	Summaries() []pipeline.Result
	Summary(location string) (pipeline.Result, bool)
}

// Server exposes the operational HTTP endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and
// /v1/summaries routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, summaries SummaryProvider, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /v1/summaries", handleSummaries(summaries))
	mux.HandleFunc("GET /v1/summaries/{location}", handleSummary(summaries))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
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

func handleSummaries(p SummaryProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		sharedobs.WriteJSON(w, http.StatusOK, map[string]any{"locations": p.Summaries()})
	}
}

func handleSummary(p SummaryProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("location")
		res, ok := p.Summary(name)
		if !ok {
			sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "no merge result for location " + name})
			return
		}
		sharedobs.WriteJSON(w, http.StatusOK, res)
	}
}
