package outbox

import (
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/model"
)

const AggregateAppointment = "appointment"

// Event is the envelope written to outbox_events. The Kafka topic equals EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

func FromStatusChange(c model.StatusChange) (Event, error) {
	payload, err := c.Payload()
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: AggregateAppointment,
		AggregateID:   c.AppointmentID,
		EventType:     c.EventType(),
		Payload:       payload,
	}, nil
}
