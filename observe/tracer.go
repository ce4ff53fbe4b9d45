package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// CacheMeta identifies a cache, and optionally one compute call on it, for
// telemetry.
type CacheMeta struct {
	Name string // Cache name (required for spans)
	Op   string // Compute operation, e.g. "compute_if_not_exists" (optional)
	Key  string // Cache key being filled (optional, spans and logs only)
}

// SpanName returns the deterministic span name.
// Format: cache.<name>.<op> or cache.<name>
func (m CacheMeta) SpanName() string {
	if m.Op != "" {
		return "cache." + m.Name + "." + m.Op
	}
	return "cache." + m.Name
}

func (m CacheMeta) fields() []Field {
	fields := []Field{{Key: "cache.name", Value: m.Name}}
	if m.Op != "" {
		fields = append(fields, Field{Key: "cache.op", Value: m.Op})
	}
	if m.Key != "" {
		fields = append(fields, Field{Key: "cache.key", Value: m.Key})
	}
	return fields
}

func (m CacheMeta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String("cache.name", m.Name)}
	if m.Op != "" {
		attrs = append(attrs, attribute.String("cache.op", m.Op))
	}
	return attrs
}

// Tracer wraps OpenTelemetry tracing with compute-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a span for one compute function invocation.
	StartSpan(ctx context.Context, meta CacheMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording err if non-nil.
	EndSpan(span trace.Span, err error)
}

type otelTracer struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &otelTracer{tracer: t}
}

func (t *otelTracer) StartSpan(ctx context.Context, meta CacheMeta) (context.Context, trace.Span) {
	attrs := append(meta.attributes(), attribute.Bool("cache.error", false))
	if meta.Key != "" {
		attrs = append(attrs, attribute.String("cache.key", meta.Key))
	}
	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (t *otelTracer) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("cache.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// NewNoopTracer returns a Tracer whose spans are never recorded.
func NewNoopTracer() Tracer {
	return &otelTracer{tracer: tracenoop.NewTracerProvider().Tracer("noop")}
}
