package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks registration outcomes and per-step latency.
type Metrics struct {
	StepDuration *prometheus.HistogramVec
	Settled      *prometheus.CounterVec
	InFlight     prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		StepDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "registrar_pipeline_step_duration_seconds",
			Help:    "Latency of each upstream call made by the registration pipeline",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"step", "result"}),
		Settled: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_pipeline_settled_total",
			Help: "Registrations by final status",
		}, []string{"role", "status"}),
		InFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "registrar_pipeline_in_flight",
			Help: "Registrations currently between validation and settlement",
		}),
	}
}

func (m *Metrics) ObserveStep(step string, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.StepDuration.WithLabelValues(step, result).Observe(d.Seconds())
}

func (m *Metrics) IncSettled(role, status string) {
	if m == nil {
		return
	}
	m.Settled.WithLabelValues(role, status).Inc()
}

func (m *Metrics) IncInFlight() {
	if m == nil {
		return
	}
	m.InFlight.Inc()
}

func (m *Metrics) DecInFlight() {
	if m == nil {
		return
	}
	m.InFlight.Dec()
}
