package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Metric instrument names.
const (
	MetricComputeTotal    = "cache.compute.total"
	MetricComputeErrors   = "cache.compute.errors"
	MetricComputeDuration = "cache.compute.duration_ms"
)

// Metrics records compute function executions.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCompute records one compute invocation with its duration and outcome.
	RecordCompute(ctx context.Context, meta CacheMeta, duration time.Duration, err error)
}

type otelMetrics struct {
	total    metric.Int64Counter
	errors   metric.Int64Counter
	duration metric.Float64Histogram
}

// NewMetrics creates the compute instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	total, err := meter.Int64Counter(MetricComputeTotal,
		metric.WithDescription("Total number of compute function invocations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errs, err := meter.Int64Counter(MetricComputeErrors,
		metric.WithDescription("Total number of compute function errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(MetricComputeDuration,
		metric.WithDescription("Compute function duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{total: total, errors: errs, duration: duration}, nil
}

// RecordCompute records metrics for one compute invocation. The cache key is
// not a metric attribute.
func (m *otelMetrics) RecordCompute(ctx context.Context, meta CacheMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(meta.attributes()...)

	m.total.Add(ctx, 1, opt)
	if err != nil {
		m.errors.Add(ctx, 1, opt)
	}
	m.duration.Record(ctx, float64(duration)/float64(time.Millisecond), opt)
}

// NewNoopMetrics returns a Metrics that records nothing.
func NewNoopMetrics() Metrics {
	return noopMetrics{}
}

type noopMetrics struct{}

func (noopMetrics) RecordCompute(context.Context, CacheMeta, time.Duration, error) {}
