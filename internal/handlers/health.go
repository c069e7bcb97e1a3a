package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/fintrack/backend/internal/services"
	"go.uber.org/zap"
)

// HealthCheck probes one dependency. Critical checks make the service
// unhealthy when they fail; others only degrade it.
type HealthCheck struct {
	Name     string
	Critical bool
	Probe    func(ctx context.Context) error
}

type DependencyHealth struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	LatencyMs int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}

type HealthStatus struct {
	Status       string             `json:"status"`
	Dependencies []DependencyHealth `json:"dependencies"`
}

// Health reports service status
// @Summary Health check
// @Tags ops
// @Produce json
// @Success 200 {object} HealthStatus
// @Failure 503 {object} HealthStatus
// @Router /health [get]
func Health(logger *zap.Logger, checks ...HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		overall := "healthy"
		deps := make([]DependencyHealth, 0, len(checks))
		for _, c := range checks {
			start := time.Now()
			err := c.Probe(ctx)
			dep := DependencyHealth{
				Name:      c.Name,
				Status:    "healthy",
				LatencyMs: time.Since(start).Milliseconds(),
			}
			if err != nil {
				logger.Warn("health check failed", zap.String("dependency", c.Name), zap.Error(err))
				dep.Error = err.Error()
				if c.Critical {
					dep.Status = "unhealthy"
					overall = "unhealthy"
				} else {
					dep.Status = "degraded"
					if overall == "healthy" {
						overall = "degraded"
					}
				}
			}
			deps = append(deps, dep)
		}

		status := http.StatusOK
		if overall == "unhealthy" {
			status = http.StatusServiceUnavailable
		}
		services.WriteJSON(w, status, HealthStatus{Status: overall, Dependencies: deps})
	}
}
