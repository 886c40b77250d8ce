// Package server exposes symbol detection over HTTP: synchronous
// counting and vector extraction, asynchronous jobs with progress
// streaming, health, and metrics.
package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/glyphtech/symscan/internal/config"
	"github.com/glyphtech/symscan/internal/jobstore"
	"github.com/glyphtech/symscan/internal/pipeline"
)

// Server carries the shared dependencies of all handlers.
type Server struct {
	cfg      config.ServerConfig
	pipeline *pipeline.Pipeline
	store    jobstore.Store
	logger   *slog.Logger
	limiter  *RateLimiter
}

// New wires a server from the application configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	pl, err := pipeline.NewBuilder().
		WithConfig(cfg.Pipeline).
		WithLogger(logger).
		Build()
	if err != nil {
		return nil, err
	}

	var store jobstore.Store
	switch cfg.Store.Backend {
	case "badger":
		store, err = jobstore.OpenBadger(cfg.Store.Dir)
		if err != nil {
			return nil, err
		}
	default:
		store = jobstore.NewMemory()
	}

	var limiter *RateLimiter
	if cfg.Server.RateLimit > 0 {
		limiter = NewRateLimiter(cfg.Server.RateLimit)
	}

	return &Server{
		cfg:      cfg.Server,
		pipeline: pl,
		store:    store,
		logger:   logger,
		limiter:  limiter,
	}, nil
}

// Close releases the pipeline and the job store.
func (s *Server) Close() error {
	if err := s.pipeline.Close(); err != nil {
		return err
	}
	return s.store.Close()
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.wrap(s.healthHandler))
	mux.HandleFunc("/count", s.wrap(s.countHandler))
	mux.HandleFunc("/vector", s.wrap(s.vectorHandler))
	mux.HandleFunc("/jobs", s.wrap(s.jobsHandler))
	mux.HandleFunc("/jobs/", s.wrap(s.jobHandler))
	mux.HandleFunc("/ws/jobs/", s.jobProgressWebSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}

// ListenAndServe runs the server until the listener fails.
func (s *Server) ListenAndServe() error {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("server listening", "addr", addr)
	return srv.ListenAndServe()
}

// HealthResponse reports server liveness.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// JobResponse is the wire form of a job.
type JobResponse struct {
	ID        string            `json:"id"`
	File      string            `json:"file"`
	Status    jobstore.Status   `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Progress  pipeline.Progress `json:"progress"`
	Result    *pipeline.Result  `json:"result,omitempty"`
	Error     string            `json:"error,omitempty"`
}

func jobResponse(j *jobstore.Job) JobResponse {
	return JobResponse{
		ID:        j.ID,
		File:      j.File,
		Status:    j.Status,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
		Progress:  j.Progress,
		Result:    j.Result,
		Error:     j.Error,
	}
}
