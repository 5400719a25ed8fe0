package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks lookup cache effectiveness and upstream fetch latency.
type Metrics struct {
	Hits          *prometheus.CounterVec
	Misses        *prometheus.CounterVec
	FetchErrors   *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
}

// New registers lookup metrics with the default registry.
func New() *Metrics {
	return &Metrics{
		Hits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_lookup_cache_hits_total",
			Help: "Lookup reads served from a cached entry",
		}, []string{"lookup", "tier"}),
		Misses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_lookup_cache_misses_total",
			Help: "Lookup reads that required an upstream fetch",
		}, []string{"lookup"}),
		FetchErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_lookup_fetch_errors_total",
			Help: "Upstream lookup fetches that failed",
		}, []string{"lookup"}),
		FetchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "registrar_lookup_fetch_duration_seconds",
			Help:    "Latency of upstream lookup fetches",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"lookup"}),
	}
}

func (m *Metrics) ObserveHit(name, tier string) {
	if m == nil {
		return
	}
	m.Hits.WithLabelValues(name, tier).Inc()
}

func (m *Metrics) ObserveMiss(name string) {
	if m == nil {
		return
	}
	m.Misses.WithLabelValues(name).Inc()
}

func (m *Metrics) ObserveFetch(name string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.FetchDuration.WithLabelValues(name).Observe(d.Seconds())
	if err != nil {
		m.FetchErrors.WithLabelValues(name).Inc()
	}
}
