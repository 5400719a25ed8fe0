package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the process-wide HTTP metrics. Module metrics live in each
// module's own metrics package.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	BackendCalls    *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "registrar_http_request_duration_seconds",
			Help:    "Latency of inbound HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		BackendCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_backend_calls_total",
			Help: "Calls made to the records backend by endpoint and result",
		}, []string{"endpoint", "result"}),
	}
}

// ObserveRequest records one inbound request.
func (m *Metrics) ObserveRequest(method, route string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// IncrementBackendCall counts one upstream call; result is "ok", "domain" or "transport".
func (m *Metrics) IncrementBackendCall(endpoint, result string) {
	if m == nil {
		return
	}
	m.BackendCalls.WithLabelValues(endpoint, result).Inc()
}
