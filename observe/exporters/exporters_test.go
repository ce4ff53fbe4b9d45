package exporters

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func init() {
	Output = io.Discard
}

func TestNewTracingExporter(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr error
	}{
		{name: "stdout"},
		{name: "none"},
		{name: ""},
		{name: "otlp", env: map[string]string{"OTEL_EXPORTER_OTLP_ENDPOINT": "http://localhost:4317"}},
		{name: "otlp", env: map[string]string{"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT": "http://localhost:4317"}},
		{name: "otlp", wantErr: ErrEndpointNotConfigured},
		{name: "jaeger", wantErr: ErrEndpointNotConfigured},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
			t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")
			t.Setenv("OTEL_EXPORTER_JAEGER_ENDPOINT", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			exp, err := NewTracingExporter(context.Background(), tt.name)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NewTracingExporter(%q) error = %v, want %v", tt.name, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewTracingExporter(%q) unexpected error: %v", tt.name, err)
			}
			if exp == nil {
				t.Fatal("expected non-nil exporter")
			}
			_ = exp.Shutdown(context.Background())
		})
	}
}

func TestNewTracingExporter_UnknownName(t *testing.T) {
	_, err := NewTracingExporter(context.Background(), "zipkin")
	if err == nil || !strings.Contains(err.Error(), "unknown exporter") {
		t.Fatalf("expected unknown exporter error, got %v", err)
	}
}

func TestNewMetricsReader(t *testing.T) {
	for _, name := range []string{"stdout", "none", "", "prometheus"} {
		t.Run(name, func(t *testing.T) {
			reader, err := NewMetricsReader(context.Background(), name)
			if err != nil {
				t.Fatalf("NewMetricsReader(%q) unexpected error: %v", name, err)
			}
			if reader == nil {
				t.Fatal("expected non-nil reader")
			}
		})
	}
}

func TestNewMetricsReader_OtlpRequiresEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "")

	_, err := NewMetricsReader(context.Background(), "otlp")
	if !errors.Is(err, ErrEndpointNotConfigured) {
		t.Fatalf("expected ErrEndpointNotConfigured, got %v", err)
	}

	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "http://localhost:4317")
	reader, err := NewMetricsReader(context.Background(), "otlp")
	if err != nil {
		t.Fatalf("unexpected error with endpoint set: %v", err)
	}
	if reader == nil {
		t.Fatal("expected non-nil reader")
	}
}

func TestNewMetricsReader_UnknownName(t *testing.T) {
	_, err := NewMetricsReader(context.Background(), "statsd")
	if err == nil || !strings.Contains(err.Error(), "unknown metrics exporter") {
		t.Fatalf("expected unknown metrics exporter error, got %v", err)
	}
}
