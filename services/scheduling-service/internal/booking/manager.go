package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/availability"
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Store persists appointments. Implementations serialize writes per professional so the
// overlap re-check and the write happen atomically, and record the StatusChange in the
// same unit of work.
type Store interface {
	GetAppointment(ctx context.Context, id string) (model.Appointment, error)
	ListAppointments(ctx context.Context, professionalID string, from, to time.Time) ([]model.Appointment, error)
	// CreateAppointment returns model.ErrConcurrentConflict when an occupying appointment
	// of the same professional overlaps a.
	CreateAppointment(ctx context.Context, a model.Appointment, evt model.StatusChange) (model.Appointment, error)
	// UpdateAppointment locks the row, applies mutate and persists the result together
	// with the returned event. A changed time range is re-checked for overlap.
	UpdateAppointment(ctx context.Context, id string, mutate func(*model.Appointment) (model.StatusChange, error)) (model.Appointment, error)
}

type SlotFinder interface {
	FreeSlots(ctx context.Context, q availability.Query, now time.Time) ([]model.TimeRange, error)
}

type Catalog interface {
	CanPerform(ctx context.Context, professionalID, serviceID string) (bool, error)
	Duration(ctx context.Context, serviceID string) (time.Duration, error)
	BusinessOf(ctx context.Context, professionalID string) (string, error)
}

type Manager struct {
	store   Store
	slots   SlotFinder
	catalog Catalog
	loc     *time.Location
	now     func() time.Time
	logger  *slog.Logger
	tracer  trace.Tracer
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(m *Manager) { m.tracer = tracer }
}

func NewManager(store Store, slots SlotFinder, cat Catalog, loc *time.Location, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		slots:   slots,
		catalog: cat,
		loc:     loc,
		now:     time.Now,
		logger:  slog.Default(),
		tracer:  noop.NewTracerProvider().Tracer("booking"),
	}
	if m.loc == nil {
		m.loc = time.Local
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type CreateRequest struct {
	ClientID       string
	ServiceID      string
	ProfessionalID string
	Start          time.Time
	Notes          string
}

func (r CreateRequest) validate() error {
	switch {
	case strings.TrimSpace(r.ClientID) == "":
		return model.Invalid("client id is required")
	case strings.TrimSpace(r.ServiceID) == "":
		return model.Invalid("service id is required")
	case strings.TrimSpace(r.ProfessionalID) == "":
		return model.Invalid("professional id is required")
	case r.Start.IsZero():
		return model.Invalid("start time is required")
	}
	return nil
}

// Create books the requested slot as PENDING. The slot must be one of the currently free
// candidates; a booking that loses the race at commit fails with ErrConcurrentConflict.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (model.Appointment, error) {
	ctx, span := m.tracer.Start(ctx, "booking.Create", trace.WithAttributes(
		attribute.String("professional_id", req.ProfessionalID),
		attribute.String("service_id", req.ServiceID),
	))
	defer span.End()

	appt, err := m.create(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return model.Appointment{}, err
	}
	span.SetAttributes(attribute.String("appointment_id", appt.ID))
	return appt, nil
}

func (m *Manager) create(ctx context.Context, req CreateRequest) (model.Appointment, error) {
	if err := req.validate(); err != nil {
		return model.Appointment{}, err
	}
	now := m.now()
	if !req.Start.After(now) {
		return model.Appointment{}, model.Invalid("start time must be in the future")
	}

	ok, err := m.catalog.CanPerform(ctx, req.ProfessionalID, req.ServiceID)
	if err != nil {
		return model.Appointment{}, err
	}
	if !ok {
		return model.Appointment{}, fmt.Errorf("%w: professional %s, service %s", model.ErrNotAuthorized, req.ProfessionalID, req.ServiceID)
	}
	duration, err := m.catalog.Duration(ctx, req.ServiceID)
	if err != nil {
		return model.Appointment{}, err
	}
	businessID, err := m.catalog.BusinessOf(ctx, req.ProfessionalID)
	if err != nil {
		return model.Appointment{}, err
	}

	start := req.Start.In(m.loc)
	if err := m.requireFree(ctx, businessID, req.ProfessionalID, start, duration, "", now); err != nil {
		return model.Appointment{}, err
	}

	appt := model.Appointment{
		ID:             uuid.NewString(),
		ClientID:       req.ClientID,
		BusinessID:     businessID,
		ProfessionalID: req.ProfessionalID,
		ServiceID:      req.ServiceID,
		StartTime:      start,
		EndTime:        start.Add(duration),
		Status:         model.StatusPending,
		Notes:          strings.TrimSpace(req.Notes),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	saved, err := m.store.CreateAppointment(ctx, appt, model.NewStatusChange(model.EventCreated, "", appt, now))
	if err != nil {
		if errors.Is(err, model.ErrConcurrentConflict) {
			m.logger.Warn("booking lost commit race", "professional_id", req.ProfessionalID, "start", start)
		}
		return model.Appointment{}, err
	}
	m.logger.Info("appointment created", "appointment_id", saved.ID, "professional_id", saved.ProfessionalID, "start", saved.StartTime)
	return saved, nil
}

func (m *Manager) requireFree(ctx context.Context, businessID, professionalID string, start time.Time, duration time.Duration, ignoreID string, now time.Time) error {
	slots, err := m.slots.FreeSlots(ctx, availability.Query{
		BusinessID:          businessID,
		ProfessionalID:      professionalID,
		Date:                model.DateOf(start, m.loc),
		Duration:            duration,
		IgnoreAppointmentID: ignoreID,
	}, now)
	if err != nil {
		return err
	}
	if !availability.Contains(slots, start) {
		return fmt.Errorf("%w: %s at %s", model.ErrSlotUnavailable, professionalID, start.Format(time.RFC3339))
	}
	return nil
}

func (m *Manager) Confirm(ctx context.Context, id string) (model.Appointment, error) {
	return m.transition(ctx, "booking.Confirm", id, model.StatusConfirmed, model.EventConfirmed, "")
}

func (m *Manager) Complete(ctx context.Context, id string) (model.Appointment, error) {
	return m.transition(ctx, "booking.Complete", id, model.StatusCompleted, model.EventCompleted, "")
}

func (m *Manager) MarkNoShow(ctx context.Context, id string) (model.Appointment, error) {
	return m.transition(ctx, "booking.MarkNoShow", id, model.StatusNoShow, model.EventNoShow, "")
}

// Cancel frees the slot. A COMPLETED, NO_SHOW or already CANCELED appointment cannot be canceled.
func (m *Manager) Cancel(ctx context.Context, id, reason string) (model.Appointment, error) {
	return m.transition(ctx, "booking.Cancel", id, model.StatusCanceled, model.EventCanceled, strings.TrimSpace(reason))
}

func (m *Manager) transition(ctx context.Context, op, id string, next model.Status, kind model.EventKind, reason string) (model.Appointment, error) {
	ctx, span := m.tracer.Start(ctx, op, trace.WithAttributes(attribute.String("appointment_id", id)))
	defer span.End()

	now := m.now()
	appt, err := m.store.UpdateAppointment(ctx, id, func(a *model.Appointment) (model.StatusChange, error) {
		old := a.Status
		if !old.CanTransitionTo(next) {
			return model.StatusChange{}, fmt.Errorf("%w: %s -> %s", model.ErrInvalidTransition, old, next)
		}
		a.Status = next
		a.UpdatedAt = now
		if next == model.StatusCanceled {
			a.CancelReason = reason
		}
		return model.NewStatusChange(kind, old, *a, now), nil
	})
	if err != nil {
		span.RecordError(err)
		return model.Appointment{}, err
	}
	m.logger.Info("appointment status changed", "appointment_id", id, "status", appt.Status)
	return appt, nil
}

// MarkRated flags a COMPLETED appointment as rated. It succeeds once.
func (m *Manager) MarkRated(ctx context.Context, id string) (model.Appointment, error) {
	now := m.now()
	return m.store.UpdateAppointment(ctx, id, func(a *model.Appointment) (model.StatusChange, error) {
		if a.Status != model.StatusCompleted {
			return model.StatusChange{}, fmt.Errorf("%w: cannot rate a %s appointment", model.ErrInvalidTransition, a.Status)
		}
		if a.Rated {
			return model.StatusChange{}, model.ErrAlreadyRated
		}
		a.Rated = true
		a.UpdatedAt = now
		return model.NewStatusChange(model.EventRated, a.Status, *a, now), nil
	})
}

// Reschedule moves a PENDING or CONFIRMED appointment to newStart after validating the
// new slot the same way Create does. The status is preserved.
func (m *Manager) Reschedule(ctx context.Context, id string, newStart time.Time) (model.Appointment, error) {
	ctx, span := m.tracer.Start(ctx, "booking.Reschedule", trace.WithAttributes(attribute.String("appointment_id", id)))
	defer span.End()

	now := m.now()
	if newStart.IsZero() {
		return model.Appointment{}, model.Invalid("new start time is required")
	}
	if !newStart.After(now) {
		return model.Appointment{}, model.Invalid("new start time must be in the future")
	}
	cur, err := m.store.GetAppointment(ctx, id)
	if err != nil {
		return model.Appointment{}, err
	}
	if cur.Status.Terminal() {
		return model.Appointment{}, fmt.Errorf("%w: cannot reschedule a %s appointment", model.ErrInvalidTransition, cur.Status)
	}
	duration, err := m.catalog.Duration(ctx, cur.ServiceID)
	if err != nil {
		return model.Appointment{}, err
	}
	start := newStart.In(m.loc)
	if err := m.requireFree(ctx, cur.BusinessID, cur.ProfessionalID, start, duration, cur.ID, now); err != nil {
		return model.Appointment{}, err
	}

	appt, err := m.store.UpdateAppointment(ctx, id, func(a *model.Appointment) (model.StatusChange, error) {
		if a.Status.Terminal() {
			return model.StatusChange{}, fmt.Errorf("%w: cannot reschedule a %s appointment", model.ErrInvalidTransition, a.Status)
		}
		prev := a.StartTime
		a.StartTime = start
		a.EndTime = start.Add(duration)
		a.UpdatedAt = now
		evt := model.NewStatusChange(model.EventRescheduled, a.Status, *a, now)
		evt.PreviousStartTime = &prev
		return evt, nil
	})
	if err != nil {
		span.RecordError(err)
		return model.Appointment{}, err
	}
	m.logger.Info("appointment rescheduled", "appointment_id", id, "start", appt.StartTime)
	return appt, nil
}

func (m *Manager) Get(ctx context.Context, id string) (model.Appointment, error) {
	if strings.TrimSpace(id) == "" {
		return model.Appointment{}, model.Invalid("appointment id is required")
	}
	return m.store.GetAppointment(ctx, id)
}

func (m *Manager) ListForProfessional(ctx context.Context, professionalID string, from, to time.Time) ([]model.Appointment, error) {
	if strings.TrimSpace(professionalID) == "" {
		return nil, model.Invalid("professional id is required")
	}
	if !to.After(from) {
		return nil, model.Invalid("to must be after from")
	}
	return m.store.ListAppointments(ctx, professionalID, from, to)
}
