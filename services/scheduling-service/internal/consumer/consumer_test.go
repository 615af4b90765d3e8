package consumer

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/model"
	"github.com/segmentio/kafka-go"
)

type memInbox struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (m *memInbox) Record(_ context.Context, id, _ string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen == nil {
		m.seen = map[string]bool{}
	}
	if m.seen[id] {
		return false, nil
	}
	m.seen[id] = true
	return true, nil
}

func message(t *testing.T, eventID string, evt model.StatusChange) kafka.Message {
	t.Helper()
	payload, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return kafka.Message{
		Topic: evt.EventType(),
		Key:   []byte(evt.AppointmentID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(eventID)},
			{Key: "event_type", Value: []byte(evt.EventType())},
		},
	}
}

func TestHandleDeliversOncePerEventID(t *testing.T) {
	var got []model.StatusChange
	c := newConsumer(nil, &memInbox{}, func(_ context.Context, evt model.StatusChange) error {
		got = append(got, evt)
		return nil
	})

	evt := model.StatusChange{
		Kind:          model.EventCanceled,
		AppointmentID: "appt-1",
		OldStatus:     model.StatusPending,
		NewStatus:     model.StatusCanceled,
		OccurredAt:    time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
	}
	msg := message(t, "e-1", evt)

	for i := 0; i < 2; i++ {
		if err := c.Handle(context.Background(), msg); err != nil {
			t.Fatalf("handle #%d: %v", i, err)
		}
	}
	if len(got) != 1 {
		t.Fatalf("expected one delivery, got %d", len(got))
	}
	if got[0].AppointmentID != "appt-1" || got[0].NewStatus != model.StatusCanceled {
		t.Fatalf("unexpected event: %+v", got[0])
	}
}

func TestHandleRejectsUndecodablePayload(t *testing.T) {
	c := newConsumer(nil, &memInbox{}, func(context.Context, model.StatusChange) error {
		t.Fatalf("handler must not run")
		return nil
	})
	msg := kafka.Message{Topic: "scheduling.appointment.created.v1", Key: []byte("k"), Value: []byte("{")}
	if err := c.Handle(context.Background(), msg); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestAppointmentTopics(t *testing.T) {
	topics := AppointmentTopics()
	if len(topics) != 7 {
		t.Fatalf("expected 7 topics, got %d", len(topics))
	}
	if topics[0] != "scheduling.appointment.created.v1" {
		t.Fatalf("unexpected first topic %q", topics[0])
	}
}
