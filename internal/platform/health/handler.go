// Package health provides HTTP health check endpoints for liveness, readiness, and status probes.
package health

import (
	"maps"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"priorauth/pkg/httputil"
)

// Version is set at build time via ldflags.
var Version = "dev"

// CheckFunc is a function that checks the health of a dependency.
// It returns nil if healthy, or an error describing the issue.
type CheckFunc func() error

// Handler provides health check endpoints.
type Handler struct {
	startTime   time.Time
	environment string

	mu     sync.RWMutex
	checks map[string]CheckFunc
}

// New creates a new health handler.
func New(environment string) *Handler {
	return &Handler{
		startTime:   time.Now(),
		environment: environment,
		checks:      make(map[string]CheckFunc),
	}
}

// RegisterCheck adds a named health check used by the status and readiness probes.
func (h *Handler) RegisterCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// Register mounts health check routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.HandleStatus)
	r.Get("/health/live", h.HandleLiveness)
	r.Get("/health/ready", h.HandleReadiness)
}

// LivenessResponse is the response for the liveness probe.
type LivenessResponse struct {
	Status string `json:"status"`
}

// HandleLiveness returns a simple liveness probe response.
// This endpoint should always return 200 OK if the service is running.
func (h *Handler) HandleLiveness(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, LivenessResponse{
		Status: "alive",
	})
}

// ReadinessResponse is the response for the readiness probe.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HandleReadiness returns a readiness probe response.
// This endpoint checks all registered dependencies and returns 503 if any are unhealthy.
func (h *Handler) HandleReadiness(w http.ResponseWriter, _ *http.Request) {
	response := ReadinessResponse{
		Status: "ready",
		Checks: make(map[string]string),
	}

	if !h.runChecks(response.Checks) {
		response.Status = "not_ready"
		httputil.WriteJSON(w, http.StatusServiceUnavailable, response)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, response)
}

// StatusResponse is the response for the general health status endpoint.
// Status is "healthy" when every dependency check passes and "degraded" otherwise.
type StatusResponse struct {
	Status        string            `json:"status"`
	Checks        map[string]string `json:"checks,omitempty"`
	Version       string            `json:"version"`
	Environment   string            `json:"environment"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Timestamp     string            `json:"timestamp"`
}

// HandleStatus reports overall health. Unlike readiness it always answers 200
// so monitors can distinguish "degraded but serving" from "down".
func (h *Handler) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	response := StatusResponse{
		Status:        "healthy",
		Checks:        make(map[string]string),
		Version:       Version,
		Environment:   h.environment,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}

	if !h.runChecks(response.Checks) {
		response.Status = "degraded"
	}

	httputil.WriteJSON(w, http.StatusOK, response)
}

// runChecks fills results with per-dependency outcomes and reports whether all passed.
func (h *Handler) runChecks(results map[string]string) bool {
	h.mu.RLock()
	checks := make(map[string]CheckFunc, len(h.checks))
	maps.Copy(checks, h.checks)
	h.mu.RUnlock()

	allHealthy := true
	for name, check := range checks {
		if err := check(); err != nil {
			results[name] = "down: " + err.Error()
			allHealthy = false
		} else {
			results[name] = "up"
		}
	}
	return allHealthy
}
