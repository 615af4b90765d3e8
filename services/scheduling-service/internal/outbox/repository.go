package outbox

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	otelx "github.com/md-rashed-zaman/barberbook/libs/otel"
)

// Repository holds no state; every call runs on the caller's transaction.
type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

func (r *Repository) Insert(ctx context.Context, tx pgx.Tx, evt Event) error {
	traceparent, tracestate := otelx.TraceContextStrings(ctx)
	_, err := tx.Exec(ctx, `
		INSERT INTO outbox_events (aggregate_type, aggregate_id, event_type, payload, traceparent, tracestate)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))
	`, evt.AggregateType, evt.AggregateID, evt.EventType, evt.Payload, traceparent, tracestate)
	return err
}

// Record is one pending row. Field order matches the FetchPending projection.
type Record struct {
	ID            int64
	EventID       string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	Traceparent   string
	Tracestate    string
	Attempts      int
	CreatedAt     time.Time
}

// FetchPending locks up to limit unpublished rows that have failed fewer than maxAttempts
// times. Rows locked by another publisher are skipped.
func (r *Repository) FetchPending(ctx context.Context, tx pgx.Tx, limit, maxAttempts int) ([]Record, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, event_id::text, aggregate_type, aggregate_id, event_type, payload,
			COALESCE(traceparent, ''), COALESCE(tracestate, ''), attempts, created_at
		FROM outbox_events
		WHERE published_at IS NULL AND attempts < $2
		ORDER BY id
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit, maxAttempts)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[Record])
}

func (r *Repository) MarkPublished(ctx context.Context, tx pgx.Tx, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		UPDATE outbox_events
		SET published_at = now(), last_error = NULL
		WHERE id = ANY($1)
	`, ids)
	return err
}

// MarkFailed bumps the attempt counter of ids and stores the broker error.
func (r *Repository) MarkFailed(ctx context.Context, tx pgx.Tx, ids []int64, cause error) error {
	if len(ids) == 0 || cause == nil {
		return nil
	}
	_, err := tx.Exec(ctx, `
		UPDATE outbox_events
		SET attempts = attempts + 1, last_error = $2
		WHERE id = ANY($1)
	`, ids, cause.Error())
	return err
}
