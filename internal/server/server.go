package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/d-naGit/cs-4337-FinalProject-d-naGit/internal/server/api"
	"github.com/d-naGit/cs-4337-FinalProject-d-naGit/internal/store"
)

// Config holds the server configuration.
type Config struct {
	Store   *store.Store
	Hub     *Hub
	Metrics http.Handler
}

// Server represents the HTTP preview server.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Store != nil {
		runsHandler := api.NewRunsHandler(s.config.Store)
		s.mux.Handle("/api/runs", runsHandler)
		s.mux.Handle("/api/runs/", runsHandler)
	}

	if s.config.Hub != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Hub))
		s.mux.Handle("/api/results", NewResultsHandler(s.config.Hub))
	}

	if s.config.Metrics != nil {
		s.mux.Handle("/metrics", s.config.Metrics)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
