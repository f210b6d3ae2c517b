package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for SendParcel calls.
// It satisfies sendparcel.Recorder.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Errors          *prometheus.CounterVec
}

// NewMetrics creates the metrics and registers them with reg.
// A nil reg uses the default Prometheus registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sendparcel_requests_total",
				Help: "Total SendParcel API calls by operation, method, and outcome",
			},
			[]string{"operation", "method", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sendparcel_request_duration_seconds",
				Help:    "SendParcel API call duration in seconds by operation",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "method"},
		),
		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sendparcel_errors_total",
				Help: "SendParcel API call failures by operation and error type",
			},
			[]string{"operation", "error_type"},
		),
	}
}

// RecordRequest records a completed call.
func (m *Metrics) RecordRequest(operation, method, status string, duration float64) {
	m.RequestsTotal.WithLabelValues(operation, method, status).Inc()
	m.RequestDuration.WithLabelValues(operation, method).Observe(duration)
}

// RecordError records a failed call.
func (m *Metrics) RecordError(operation, errorType string) {
	m.Errors.WithLabelValues(operation, errorType).Inc()
}
