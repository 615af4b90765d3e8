package model

import (
	"encoding/json"
	"time"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCompleted Status = "COMPLETED"
	StatusCanceled  Status = "CANCELED"
	StatusNoShow    Status = "NO_SHOW"
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCanceled},
	StatusConfirmed: {StatusCompleted, StatusNoShow, StatusCanceled},
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCanceled, StatusNoShow:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCanceled || s == StatusNoShow
}

// Occupies reports whether an appointment in this status holds its time range.
func (s Status) Occupies() bool { return s != StatusCanceled }

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Appointment struct {
	ID             string    `json:"id"`
	ClientID       string    `json:"client_id"`
	BusinessID     string    `json:"business_id"`
	ProfessionalID string    `json:"professional_id,omitempty"`
	ServiceID      string    `json:"service_id"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Status         Status    `json:"status"`
	Notes          string    `json:"notes,omitempty"`
	CancelReason   string    `json:"cancel_reason,omitempty"`
	Rated          bool      `json:"rated"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (a Appointment) Range() TimeRange {
	return TimeRange{Start: a.StartTime, End: a.EndTime}
}

type EventKind string

const (
	EventCreated     EventKind = "created"
	EventConfirmed   EventKind = "confirmed"
	EventRescheduled EventKind = "rescheduled"
	EventCompleted   EventKind = "completed"
	EventCanceled    EventKind = "canceled"
	EventNoShow      EventKind = "no_show"
	EventRated       EventKind = "rated"
)

// StatusChange is emitted for every committed appointment change. OldStatus is empty
// for EventCreated.
type StatusChange struct {
	Kind              EventKind  `json:"kind"`
	AppointmentID     string     `json:"appointment_id"`
	BusinessID        string     `json:"business_id"`
	ProfessionalID    string     `json:"professional_id,omitempty"`
	ClientID          string     `json:"client_id"`
	ServiceID         string     `json:"service_id"`
	OldStatus         Status     `json:"old_status,omitempty"`
	NewStatus         Status     `json:"new_status"`
	StartTime         time.Time  `json:"start_time"`
	EndTime           time.Time  `json:"end_time"`
	PreviousStartTime *time.Time `json:"previous_start_time,omitempty"`
	OccurredAt        time.Time  `json:"occurred_at"`
}

func NewStatusChange(kind EventKind, old Status, a Appointment, at time.Time) StatusChange {
	return StatusChange{
		Kind:           kind,
		AppointmentID:  a.ID,
		BusinessID:     a.BusinessID,
		ProfessionalID: a.ProfessionalID,
		ClientID:       a.ClientID,
		ServiceID:      a.ServiceID,
		OldStatus:      old,
		NewStatus:      a.Status,
		StartTime:      a.StartTime,
		EndTime:        a.EndTime,
		OccurredAt:     at,
	}
}

// EventType doubles as the Kafka topic name.
func (c StatusChange) EventType() string {
	return "scheduling.appointment." + string(c.Kind) + ".v1"
}

func (c StatusChange) Payload() ([]byte, error) {
	return json.Marshal(c)
}
