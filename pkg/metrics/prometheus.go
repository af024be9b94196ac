package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	insightsPublished *prometheus.CounterVec
	errorsTotal       *prometheus.CounterVec
	lastConfidence    *prometheus.GaugeVec
	latency           *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		insightsPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alphapull_insights_published_total",
				Help: "Total number of insights published to backend",
			},
			[]string{"backend", "symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alphapull_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastConfidence: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "alphapull_last_confidence",
				Help: "Confidence of the most recent insight for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "alphapull_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordInsightPublished records an insight sent to a backend.
func (r *Recorder) RecordInsightPublished(backend, symbol string) {
	r.insightsPublished.WithLabelValues(backend, symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastConfidence records the confidence of the newest insight for a symbol.
func (r *Recorder) RecordLastConfidence(symbol string, confidence float64) {
	r.lastConfidence.WithLabelValues(symbol).Set(confidence)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
