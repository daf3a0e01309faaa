package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/leefowlercu/statusmirror/internal/topology"
	"github.com/leefowlercu/statusmirror/internal/uptime"
)

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	Port int
	Bind string
}

// MappingsResponse is the response format for GET /mappings.
type MappingsResponse struct {
	LoopID   string            `json:"loop_id,omitempty"`
	Mappings topology.Snapshot `json:"mappings"`
	Metrics  []uptime.Binding  `json:"metrics"`
}

// MappingsFunc returns the mapping currently being reconciled.
type MappingsFunc func() MappingsResponse

// SyncFunc requests an immediate topology sync. It returns false if one is
// already pending.
type SyncFunc func() bool

// Server is the HTTP server for health, metrics and inspection endpoints.
// It is safe for concurrent use.
type Server struct {
	mu             sync.RWMutex
	health         *HealthManager
	config         ServerConfig
	server         *http.Server
	router         *chi.Mux
	metricsHandler http.Handler
	mappingsFunc   MappingsFunc
	syncFunc       SyncFunc
}

// NewServer creates a new HTTP server with the given health manager and config.
func NewServer(health *HealthManager, config ServerConfig) *Server {
	s := &Server{
		health: health,
		config: config,
	}

	s.router = s.routes()
	return s
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Get("/mappings", s.handleMappings)
	r.Post("/sync", s.handleSync)

	if s.metricsHandler != nil {
		r.Handle("/metrics", s.metricsHandler)
	}
	return r
}

// SetMetricsHandler sets the Prometheus metrics handler.
func (s *Server) SetMetricsHandler(handler http.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metricsHandler = handler
	s.router = s.routes()
}

// SetMappingsFunc sets the function serving GET /mappings.
func (s *Server) SetMappingsFunc(fn MappingsFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mappingsFunc = fn
}

// SetSyncFunc sets the function serving POST /sync.
func (s *Server) SetSyncFunc(fn SyncFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncFunc = fn
}

// Handler returns the HTTP handler for testing purposes.
func (s *Server) Handler() http.Handler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.router
}

// LivezResponse is the response format for /healthz endpoint.
type LivezResponse struct {
	Status string `json:"status"`
}

// SyncResponse is the response format for POST /sync.
type SyncResponse struct {
	Status string `json:"status"`
}

// handleHealthz handles the /healthz endpoint (liveness probe).
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LivezResponse{Status: "alive"})
}

// handleReadyz handles the /readyz endpoint (readiness probe).
// Returns 503 until every component has completed its first cycle.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	status := s.health.Status()

	code := http.StatusOK
	if !status.Ready {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func (s *Server) handleMappings(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	fn := s.mappingsFunc
	s.mu.RUnlock()

	if fn == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "mappings not available")
		return
	}

	resp := fn()
	if resp.Mappings == nil {
		resp.Mappings = topology.Snapshot{}
	}
	if resp.Metrics == nil {
		resp.Metrics = []uptime.Binding{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	fn := s.syncFunc
	s.mu.RUnlock()

	if fn == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "sync not available")
		return
	}

	if !fn() {
		writeJSON(w, http.StatusAccepted, SyncResponse{Status: "already_pending"})
		return
	}
	writeJSON(w, http.StatusAccepted, SyncResponse{Status: "scheduled"})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// Start starts the HTTP server and blocks until it's stopped.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Bind, fmt.Sprint(s.config.Port))

	s.mu.Lock()
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router,
		BaseContext: func(l net.Listener) context.Context {
			return ctx
		},
	}
	server := s.server
	s.mu.Unlock()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error; %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	server := s.server
	s.mu.RUnlock()

	if server == nil {
		return nil
	}

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown http server; %w", err)
	}

	return nil
}
