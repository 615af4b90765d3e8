package kafkax

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestSplitBrokers(t *testing.T) {
	got := SplitBrokers(" kafka-1:9092, ,kafka-2:9092 ")
	if len(got) != 2 || got[0] != "kafka-1:9092" || got[1] != "kafka-2:9092" {
		t.Fatalf("unexpected brokers: %v", got)
	}
	if SplitBrokers("") != nil {
		t.Fatal("expected nil for empty input")
	}
}

func TestInjectTraceHeaders(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	carrier := &kafkaHeaderCarrier{headers: []kafka.Header{{Key: "event_id", Value: []byte("1")}}}
	propagation.TraceContext{}.Inject(ctx, carrier)

	if HeaderValue(carrier.headers, "event_id") != "1" {
		t.Fatal("existing headers must be kept")
	}
	want := "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	if got := HeaderValue(carrier.headers, "traceparent"); got != want {
		t.Fatalf("traceparent = %q, want %q", got, want)
	}
}

func TestExtractEventMetaFallsBackToKeyAndTopic(t *testing.T) {
	msg := kafka.Message{Topic: "scheduling.appointment.created.v1", Key: []byte("appt-1")}
	meta := ExtractEventMeta(msg)
	if meta.EventID != "appt-1" || meta.EventType != msg.Topic {
		t.Fatalf("unexpected meta: %+v", meta)
	}

	msg.Headers = []kafka.Header{{Key: "event_id", Value: []byte("e-1")}, {Key: "event_type", Value: []byte("x")}}
	meta = ExtractEventMeta(msg)
	if meta.EventID != "e-1" || meta.EventType != "x" {
		t.Fatalf("headers must win: %+v", meta)
	}
}

func TestReadyCheckWithoutBrokers(t *testing.T) {
	if err := ReadyCheck(nil)(context.Background()); err == nil {
		t.Fatal("expected error without brokers")
	}
}
