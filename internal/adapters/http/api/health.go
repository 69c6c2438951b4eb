package api

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/catalog/pkg/metrics"
)

// Pinger reports backend reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check and metrics requests.
type HealthHandler struct {
	checks  []Pinger
	metrics http.Handler
}

// NewHealthHandler creates a health handler that pings every check.
func NewHealthHandler(checks ...Pinger) *HealthHandler {
	return &HealthHandler{
		checks:  checks,
		metrics: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

// HandleHealth handles GET /healthz. It answers 503 when any store is
// unreachable.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	for _, c := range h.checks {
		if err := c.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, envelope{Status: statusError, Message: "unhealthy"})
			return
		}
	}
	writeSuccess(w, nil)
}

// HandleMetrics serves the Prometheus registry.
func (h *HealthHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}
