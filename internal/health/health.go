package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/andrewsem/factwatch/pkg/logger"
)

// Checker reports the health of one dependency.
type Checker interface {
	Health() error
}

// Server provides liveness and readiness HTTP endpoints for K8s probes.
type Server struct {
	server    *http.Server
	checkers  map[string]Checker
	ready     bool
	readyMu   sync.RWMutex
	startTime time.Time
}

// HealthStatus represents process health.
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ReadinessStatus represents service readiness.
type ReadinessStatus struct {
	Ready     bool              `json:"ready"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// NewServer creates the health check server. checkers maps dependency names
// to their health probes; optional dependencies are simply not registered.
func NewServer(port string, checkers map[string]Checker) *Server {
	mux := http.NewServeMux()

	s := &Server{
		server: &http.Server{
			Addr:         ":" + port,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		checkers:  checkers,
		startTime: time.Now(),
	}

	mux.HandleFunc("/health", s.handleHealth)    // Liveness probe
	mux.HandleFunc("/ready", s.handleReadiness)  // Readiness probe
	mux.HandleFunc("/healthz", s.handleHealth)   // Alias
	mux.HandleFunc("/readyz", s.handleReadiness) // Alias

	return s
}

// Start starts the health check server.
func (s *Server) Start() error {
	logger.Info("health check server starting",
		zap.String("addr", s.server.Addr),
	)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	logger.Info("stopping health check server...")
	return s.server.Shutdown(ctx)
}

// SetReady marks the service as ready once startup completes.
func (s *Server) SetReady(ready bool) {
	s.readyMu.Lock()
	defer s.readyMu.Unlock()
	s.ready = ready

	if ready {
		logger.Info("✅ service marked as READY")
	} else {
		logger.Warn("⚠️ service marked as NOT READY")
	}
}

func (s *Server) runChecks() (map[string]string, bool) {
	checks := make(map[string]string, len(s.checkers))
	allHealthy := true

	for name, checker := range s.checkers {
		if err := checker.Health(); err != nil {
			checks[name] = "unhealthy: " + err.Error()
			allHealthy = false
		} else {
			checks[name] = "healthy"
		}
	}
	return checks, allHealthy
}

// handleHealth answers the liveness probe. Returns 200 as long as the
// process is alive, even if dependencies are down.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
	}

	if r.URL.Query().Get("verbose") == "true" {
		status.Checks, _ = s.runChecks()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(status)
}

// handleReadiness answers the readiness probe. 200 only when startup is
// complete and every registered dependency is healthy.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	s.readyMu.RLock()
	ready := s.ready
	s.readyMu.RUnlock()

	checks, allHealthy := s.runChecks()
	isReady := ready && allHealthy

	status := ReadinessStatus{
		Ready:     isReady,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	w.Header().Set("Content-Type", "application/json")

	if isReady {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	json.NewEncoder(w).Encode(status)
}
