// Package httptransport assembles the HTTP surface of the intake service.
// It should stay thin: routing and middleware only, no business logic.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"priorauth/internal/intake/handler"
	"priorauth/internal/platform/health"
	"priorauth/internal/platform/middleware"
	"priorauth/pkg/httputil"
)

// Banner identifies the service on GET /.
type Banner struct {
	Service string `json:"service"`
	Status  string `json:"status"`
	Version string `json:"version"`
}

// NewRouter wires the middleware stack, the intake endpoints, health
// probes, and the Prometheus scrape endpoint.
func NewRouter(intake *handler.Handler, healthHandler *health.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	// Must exceed the longest deliberate delay (simulated database timeout).
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)

	r.Get("/", handleRoot)
	intake.Register(r)
	healthHandler.Register(r)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func handleRoot(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, Banner{
		Service: "prior-auth-api",
		Status:  "running",
		Version: health.Version,
	})
}
