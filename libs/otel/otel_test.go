package otelx

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_SAMPLING_RATIO", "0.25")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "false")

	cfg := ConfigFromEnv("scheduling-service")
	if !cfg.Enabled || cfg.Insecure {
		t.Fatalf("unexpected flags: %+v", cfg)
	}
	if cfg.SampleRatio != 0.25 {
		t.Fatalf("sample ratio = %v", cfg.SampleRatio)
	}

	t.Setenv("OTEL_SAMPLING_RATIO", "7")
	if got := ConfigFromEnv("x").SampleRatio; got != 1 {
		t.Fatalf("out of range ratio must fall back to 1, got %v", got)
	}
}

func TestTraceContextRoundTrip(t *testing.T) {
	if _, err := Setup(context.Background(), Config{Enabled: false}); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if tp, ts := TraceContextStrings(context.Background()); tp != "" || ts != "" {
		t.Fatalf("expected empty headers without a span, got %q %q", tp, ts)
	}

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	tp, ts := TraceContextStrings(ctx)
	if tp == "" {
		t.Fatal("expected traceparent")
	}
	restored := trace.SpanContextFromContext(ContextWithTraceContext(context.Background(), tp, ts))
	if restored.TraceID() != traceID || restored.SpanID() != spanID {
		t.Fatalf("trace context not restored: %v", restored)
	}
}
