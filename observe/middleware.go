package observe

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Middleware wraps compute functions with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: a Middleware may be shared by many caches.
//   - Context: the span context is passed to the wrapped function.
//   - Errors: errors from the wrapped function are recorded and returned unchanged.
//     A panic is recorded as an error and re-raised.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a Middleware. Nil collaborators are replaced by no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = NewNoopTracer()
	}
	if metrics == nil {
		metrics = NewNoopMetrics()
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{tracer: tracer, metrics: metrics, logger: logger}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}
	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// WrapCompute returns fn instrumented for the compute call described by meta.
// A nil Middleware returns fn unchanged.
func WrapCompute[V any](m *Middleware, meta CacheMeta, fn func(context.Context) (V, error)) func(context.Context) (V, error) {
	if m == nil {
		return fn
	}
	return func(ctx context.Context) (value V, err error) {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		// Runs on panic too; the panic is re-raised after recording.
		defer func() {
			r := recover()
			if r != nil {
				err = fmt.Errorf("observe: compute panicked: %v", r)
			}
			m.finish(ctx, span, meta, time.Since(start), err)
			if r != nil {
				panic(r)
			}
		}()

		return fn(ctx)
	}
}

func (m *Middleware) finish(ctx context.Context, span trace.Span, meta CacheMeta, duration time.Duration, err error) {
	m.tracer.EndSpan(span, err)
	m.metrics.RecordCompute(ctx, meta, duration, err)

	logger := m.logger.WithCache(meta)
	durationField := Field{Key: "duration_ms", Value: float64(duration.Milliseconds())}
	if err != nil {
		logger.Error(ctx, "compute failed", durationField, Field{Key: "error", Value: err.Error()})
	} else {
		logger.Debug(ctx, "compute completed", durationField)
	}
}
