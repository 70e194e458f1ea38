// Package server exposes the analysis cascade over HTTP: a synchronous
// endpoint, the trigger/status pair of the asynchronous shape, and the
// operational surface (limits, health, metrics).
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/koztechie/svitlogics/pkg/cascade"
	"github.com/koztechie/svitlogics/pkg/store"
	"github.com/koztechie/svitlogics/pkg/taskqueue"
)

// Server routes HTTP traffic to the orchestrator, queue and store.
type Server struct {
	orch             *cascade.Orchestrator
	queue            taskqueue.Queue
	store            store.Store
	limiter          Limiter
	trustProxyHeader bool
	logger           *zap.Logger
	cascadeTimeout   time.Duration
	mux              *http.ServeMux
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithLimiter enables admission rate limiting.
func WithLimiter(l Limiter) Option {
	return func(s *Server) {
		s.limiter = l
	}
}

// WithProxyHeaderTrust makes rate limiting identify clients by the first
// X-Forwarded-For hop. Enable only behind a reverse proxy that overwrites
// the header.
func WithProxyHeaderTrust() Option {
	return func(s *Server) {
		s.trustProxyHeader = true
	}
}

// WithCascadeTimeout caps the synchronous endpoint's full cascade walk.
func WithCascadeTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.cascadeTimeout = d
		}
	}
}

// New creates a Server and registers its routes.
func New(orch *cascade.Orchestrator, q taskqueue.Queue, st store.Store, opts ...Option) *Server {
	s := &Server{
		orch:           orch,
		queue:          q,
		store:          st,
		logger:         zap.NewNop(),
		cascadeTimeout: 5 * time.Minute,
		mux:            http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.Handle("/api/analyze", s.rateLimited(http.HandlerFunc(s.handleAnalyze)))
	s.mux.Handle("/api/analyze/trigger", s.rateLimited(http.HandlerFunc(s.handleTrigger)))
	s.mux.HandleFunc("/api/analyze/status", s.handleStatus)
	s.mux.HandleFunc("/api/limits", s.handleLimits)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.Handler())
}

// ServeHTTP implements http.Handler with request metrics around the mux.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	withMetrics(s.mux).ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
