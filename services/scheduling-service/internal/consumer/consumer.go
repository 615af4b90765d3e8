// Package consumer reads appointment events back from Kafka and hands each one, once,
// to a notification handler.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/kafkax"
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/notify"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Inbox interface {
	Record(ctx context.Context, eventID, eventType string) (bool, error)
}

type Config struct {
	Brokers []string
	GroupID string
	Topics  []string
}

type Consumer struct {
	reader  *kafka.Reader
	logger  *slog.Logger
	inbox   Inbox
	handler notify.Handler
}

// AppointmentTopics lists the topic of every appointment event kind.
func AppointmentTopics() []string {
	kinds := []model.EventKind{
		model.EventCreated,
		model.EventConfirmed,
		model.EventRescheduled,
		model.EventCompleted,
		model.EventCanceled,
		model.EventNoShow,
		model.EventRated,
	}
	topics := make([]string, 0, len(kinds))
	for _, k := range kinds {
		topics = append(topics, model.StatusChange{Kind: k}.EventType())
	}
	return topics
}

func New(logger *slog.Logger, inbox Inbox, cfg Config, handler notify.Handler) *Consumer {
	if len(cfg.Topics) == 0 {
		cfg.Topics = AppointmentTopics()
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		GroupTopics: cfg.Topics,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
	c := newConsumer(logger, inbox, handler)
	c.reader = reader
	return c
}

func newConsumer(logger *slog.Logger, inbox Inbox, handler notify.Handler) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	if handler == nil {
		handler = notify.LogHandler(logger)
	}
	return &Consumer{logger: logger, inbox: inbox, handler: handler}
}

func (c *Consumer) Run(ctx context.Context) {
	defer c.reader.Close()

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("kafka read error", "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if err := c.Handle(ctx, msg); err != nil {
			c.logger.Error("event handling failed", "err", err, "topic", msg.Topic)
		}
	}
}

// Handle deduplicates msg through the inbox, decodes it and invokes the handler.
func (c *Consumer) Handle(ctx context.Context, msg kafka.Message) error {
	ctx = kafkax.ExtractTraceContext(ctx, msg)
	ctx, span := otel.Tracer("kafka").Start(ctx, "kafka.consume",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
		),
	)
	defer span.End()

	meta := kafkax.ExtractEventMeta(msg)
	fresh, err := c.inbox.Record(ctx, meta.EventID, meta.EventType)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "inbox record failed")
		return fmt.Errorf("inbox record: %w", err)
	}
	if !fresh {
		c.logger.Info("duplicate event ignored", "event_id", meta.EventID, "event_type", meta.EventType)
		return nil
	}

	var evt model.StatusChange
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode failed")
		return fmt.Errorf("decode %s: %w", meta.EventID, err)
	}
	if err := c.handler(ctx, evt); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "handler failed")
		return err
	}
	return nil
}
