// Package notify dispatches appointment status changes in process when no Kafka outbox
// is configured.
package notify

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/model"
)

type Handler func(ctx context.Context, evt model.StatusChange) error

// Queue is a bounded buffer between the booking engine and a single dispatcher goroutine.
// Enqueue never blocks: when the buffer is full the event is dropped and counted.
type Queue struct {
	ch      chan model.StatusChange
	handler Handler
	logger  *slog.Logger
	dropped atomic.Int64
}

func NewQueue(size int, handler Handler, logger *slog.Logger) *Queue {
	if size <= 0 {
		size = 256
	}
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{ch: make(chan model.StatusChange, size), logger: logger}
	q.handler = handler
	if q.handler == nil {
		q.handler = LogHandler(logger)
	}
	return q
}

func (q *Queue) Enqueue(_ context.Context, evt model.StatusChange) {
	select {
	case q.ch <- evt:
	default:
		q.dropped.Add(1)
		q.logger.Warn("notification queue full, dropping event",
			"event_type", evt.EventType(), "appointment_id", evt.AppointmentID)
	}
}

func (q *Queue) Dropped() int64 { return q.dropped.Load() }

// Run dispatches events until ctx is done, then drains what is already buffered.
func (q *Queue) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			q.drain()
			return
		case evt := <-q.ch:
			q.dispatch(ctx, evt)
		}
	}
}

func (q *Queue) drain() {
	for {
		select {
		case evt := <-q.ch:
			q.dispatch(context.Background(), evt)
		default:
			return
		}
	}
}

func (q *Queue) dispatch(ctx context.Context, evt model.StatusChange) {
	if err := q.handler(ctx, evt); err != nil {
		q.logger.Error("notification dispatch failed", "event_type", evt.EventType(), "appointment_id", evt.AppointmentID, "err", err)
	}
}

// LogHandler records each event as a structured log line.
func LogHandler(logger *slog.Logger) Handler {
	return func(_ context.Context, evt model.StatusChange) error {
		logger.Info("appointment event",
			"event_type", evt.EventType(),
			"appointment_id", evt.AppointmentID,
			"professional_id", evt.ProfessionalID,
			"client_id", evt.ClientID,
			"old_status", evt.OldStatus,
			"new_status", evt.NewStatus,
		)
		return nil
	}
}
