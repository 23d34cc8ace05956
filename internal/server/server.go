// Package server provides the HTTP server for the RepSense rep counting service.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ayusman/repsense/internal/metrics"
	"github.com/ayusman/repsense/internal/server/api"
	"github.com/ayusman/repsense/internal/session"
	"github.com/ayusman/repsense/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Sessions  *session.Manager
	Metrics   *metrics.Manager
	// Gatherer backs /metrics; the endpoint is not mounted when nil.
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// Server represents the HTTP server for the RepSense application.
type Server struct {
	config Config
	router chi.Router
	log    *slog.Logger
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		config: config,
		router: chi.NewRouter(),
		log:    logger,
		start:  time.Now(),
	}
	s.routes()
	return s
}

// routes configures all HTTP routes for the server.
func (s *Server) routes() {
	r := s.router
	r.Use(RequestLogging(s.log))
	if s.config.Metrics != nil {
		r.Use(RequestMetrics(s.config.Metrics))
	}
	r.Use(CORS)

	r.Get("/api/health", s.handleHealth)

	if s.config.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{}))
	}

	if s.config.Store != nil {
		r.Mount("/api/profiles", api.NewProfileHandler(s.config.Store, s.log).Routes())
	}

	if s.config.Sessions != nil {
		stream := NewStreamHandler(s.config.Sessions, s.log)
		sessions := api.NewSessionHandler(s.config.Sessions, s.config.Store, s.log).WithStream(stream)
		r.Mount("/api/sessions", sessions.Routes())
	}

	if s.config.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}
