package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the API.
type Metrics struct {
	// Registry owns these metrics; the /metrics endpoint serves it.
	Registry *prometheus.Registry

	mutationsTotal   *prometheus.CounterVec
	mutationDuration *prometheus.HistogramVec
	httpRequests     *prometheus.CounterVec
}

// NewMetrics registers everything in a private registry so that tests can
// call it repeatedly without duplicate collector panics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		mutationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_ledger_mutations_total",
				Help: "Ledger mutations by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		mutationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fintrack_ledger_mutation_duration_seconds",
				Help:    "Duration of ledger mutations including commit.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_http_requests_total",
				Help: "HTTP requests by method and status code.",
			},
			[]string{"method", "status"},
		),
	}
}

// ObserveMutation records one ledger mutation. outcome is "success" or an
// error class such as "validation", "not_found", "state" or "error".
func (m *Metrics) ObserveMutation(operation, outcome string, d time.Duration) {
	m.mutationsTotal.WithLabelValues(operation, outcome).Inc()
	m.mutationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *Metrics) IncrHTTPRequest(method string, status int) {
	m.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}
