package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/barberbook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/barberbook/libs/otel"
	"github.com/segmentio/kafka-go"
)

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// TxRunner is satisfied by *db.Pool.
type TxRunner interface {
	InTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

type PublisherConfig struct {
	Brokers     []string
	PollEvery   time.Duration
	BatchSize   int
	MaxAttempts int
}

// Publisher relays committed outbox rows to Kafka. Rows are marked published only after
// the whole batch was written, so delivery is at least once. A batch that keeps failing
// is parked after MaxAttempts tries.
type Publisher struct {
	db          TxRunner
	repo        *Repository
	logger      *slog.Logger
	brokers     []string
	pollEvery   time.Duration
	batchSize   int
	maxAttempts int
}

func NewPublisher(db TxRunner, repo *Repository, logger *slog.Logger, cfg PublisherConfig) *Publisher {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		db:          db,
		repo:        repo,
		logger:      logger,
		brokers:     cfg.Brokers,
		pollEvery:   cfg.PollEvery,
		batchSize:   cfg.BatchSize,
		maxAttempts: cfg.MaxAttempts,
	}
}

func (p *Publisher) Run(ctx context.Context) {
	if len(p.brokers) == 0 {
		p.logger.Warn("outbox publisher disabled (no kafka brokers configured)")
		return
	}

	writer := kafkax.NewWriter(p.brokers)
	defer writer.Close()

	ticker := time.NewTicker(p.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.PublishBatch(ctx, writer)
			if err != nil {
				p.logger.Error("outbox publish failed", "err", err)
				continue
			}
			if n > 0 {
				p.logger.Debug("outbox batch published", "count", n)
			}
		}
	}
}

// PublishBatch sends one batch. A broker failure is recorded on the rows and returned.
func (p *Publisher) PublishBatch(ctx context.Context, writer MessageWriter) (int, error) {
	var (
		published int
		writeErr  error
	)
	err := p.db.InTx(ctx, func(tx pgx.Tx) error {
		records, err := p.repo.FetchPending(ctx, tx, p.batchSize, p.maxAttempts)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		ids := make([]int64, 0, len(records))
		for _, r := range records {
			ids = append(ids, r.ID)
		}
		if writeErr = writer.WriteMessages(ctx, Messages(ctx, records)...); writeErr != nil {
			for _, r := range records {
				if r.Attempts+1 >= p.maxAttempts {
					p.logger.Error("outbox event parked", "event_id", r.EventID, "event_type", r.EventType, "attempts", r.Attempts+1)
				}
			}
			return p.repo.MarkFailed(ctx, tx, ids, writeErr)
		}
		if err := p.repo.MarkPublished(ctx, tx, ids); err != nil {
			return err
		}
		published = len(records)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return published, writeErr
}

// Messages converts outbox rows to Kafka messages keyed by aggregate id, carrying the
// event id, event type and the trace context captured at insert time.
func Messages(ctx context.Context, records []Record) []kafka.Message {
	msgs := make([]kafka.Message, 0, len(records))
	for _, r := range records {
		msgCtx := otelx.ContextWithTraceContext(ctx, r.Traceparent, r.Tracestate)
		msg := kafka.Message{
			Topic: r.EventType,
			Key:   []byte(r.AggregateID),
			Value: r.Payload,
			Headers: []kafka.Header{
				{Key: "event_id", Value: []byte(r.EventID)},
				{Key: "event_type", Value: []byte(r.EventType)},
				{Key: "aggregate_type", Value: []byte(r.AggregateType)},
			},
		}
		msg.Headers = kafkax.InjectTraceHeaders(msgCtx, msg.Headers)
		msgs = append(msgs, msg)
	}
	return msgs
}
