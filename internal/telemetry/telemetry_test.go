package telemetry_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/sendparcel/internal/telemetry"
	"github.com/tournevent/sendparcel/pkg/sendparcel"
)

var _ sendparcel.Recorder = (*telemetry.Metrics)(nil)

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "INFO", "warn", "error", "bogus"} {
		logger, err := telemetry.NewLogger(level)
		require.NoError(t, err, level)
		assert.NotNil(t, logger)
	}
}

// counterValue sums the counter samples of name whose labels include want.
func counterValue(t *testing.T, reg *prometheus.Registry, name string, want map[string]string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			for k, v := range want {
				if labels[k] != v {
					continue metrics
				}
			}
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestMetrics_RecordRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := telemetry.NewMetrics(reg)

	m.RecordRequest("checkout", "POST", "ok", 0.2)
	m.RecordRequest("checkout", "POST", "ok", 0.3)
	m.RecordRequest("checkout", "POST", "rejected", 0.1)

	assert.Equal(t, 2.0, counterValue(t, reg, "sendparcel_requests_total", map[string]string{"operation": "checkout", "status": "ok"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "sendparcel_requests_total", map[string]string{"status": "rejected"}))

	families, err := reg.Gather()
	require.NoError(t, err)
	var samples uint64
	for _, mf := range families {
		if mf.GetName() == "sendparcel_request_duration_seconds" {
			for _, metric := range mf.GetMetric() {
				samples += metric.GetHistogram().GetSampleCount()
			}
		}
	}
	assert.Equal(t, uint64(3), samples)
}

func TestMetrics_RecordError(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := telemetry.NewMetrics(reg)

	m.RecordError("me", "transport")
	m.RecordError("me", "http")
	m.RecordError("me", "transport")

	assert.Equal(t, 2.0, counterValue(t, reg, "sendparcel_errors_total", map[string]string{"operation": "me", "error_type": "transport"}))
	assert.Equal(t, 3.0, counterValue(t, reg, "sendparcel_errors_total", nil))
}

func TestNewMetrics_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		telemetry.NewMetrics(prometheus.NewRegistry())
		telemetry.NewMetrics(prometheus.NewRegistry())
	})
}

func TestInitTracer_InvalidEndpoint(t *testing.T) {
	_, _, err := telemetry.InitTracer(context.Background(), "not a url", "sendparcel", "test")
	assert.Error(t, err)
}

func TestInitTracer(t *testing.T) {
	tracer, shutdown, err := telemetry.InitTracer(context.Background(), "http://127.0.0.1:4318", "sendparcel", "test")
	require.NoError(t, err)
	require.NotNil(t, tracer)

	_, span := tracer.Start(context.Background(), "test")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	_ = shutdown(ctx)
}
