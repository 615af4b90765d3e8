package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type WeeklyReader interface {
	// GetWeeklyHours returns model.ErrNotFound when no active entry exists.
	GetWeeklyHours(ctx context.Context, scope model.Scope, weekday time.Weekday) (model.WeeklyHours, error)
}

type ExceptionReader interface {
	// GetException returns model.ErrNotFound when no active exception exists.
	GetException(ctx context.Context, scope model.Scope, date time.Time) (model.DateException, error)
}

type BlockReader interface {
	ListBlocks(ctx context.Context, professionalID string, from, to time.Time) ([]model.BlockedSlot, error)
}

type AppointmentReader interface {
	// ListBusy returns the non-canceled appointments of the professional overlapping [from, to).
	ListBusy(ctx context.Context, professionalID string, from, to time.Time) ([]model.Appointment, error)
}

type Sources struct {
	Weekly       WeeklyReader
	Exceptions   ExceptionReader
	Blocks       BlockReader
	Appointments AppointmentReader
}

type BaseSource string

const (
	SourceProfessionalException BaseSource = "exception_professional"
	SourceBusinessException     BaseSource = "exception_business"
	SourceProfessionalWeekly    BaseSource = "weekly_professional"
	SourceBusinessWeekly        BaseSource = "weekly_business"
	SourceClosed                BaseSource = "closed"
	SourceNotConfigured         BaseSource = "not_configured"
)

// Base is the open window of a date before blocks and appointments are removed.
type Base struct {
	Range  model.TimeRange `json:"range"`
	Open   bool            `json:"open"`
	Source BaseSource      `json:"source"`
}

type Query struct {
	BusinessID     string
	ProfessionalID string
	Date           time.Time
	Duration       time.Duration
	// IgnoreAppointmentID excludes one appointment from the busy set, used when rescheduling.
	IgnoreAppointmentID string
}

type Calculator struct {
	src    Sources
	loc    *time.Location
	tracer trace.Tracer
}

func NewCalculator(src Sources, loc *time.Location, tracer trace.Tracer) *Calculator {
	if loc == nil {
		loc = time.Local
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("availability")
	}
	return &Calculator{src: src, loc: loc, tracer: tracer}
}

// MaxDuration bounds a slot length to one day.
const MaxDuration = time.Duration(model.MinutesPerDay) * time.Minute

func (c *Calculator) Location() *time.Location { return c.loc }

// BaseInterval resolves the open window for the date. A CLOSED exception at either scope
// closes the day. A SPECIAL_HOURS exception replaces the weekly rule, the professional's
// winning over the business's. Otherwise the professional's weekly entry wins over the
// business's.
func (c *Calculator) BaseInterval(ctx context.Context, professionalID, businessID string, date time.Time) (Base, error) {
	date = model.CivilDate(date)

	proExc, proFound, err := c.exception(ctx, model.ProfessionalScope(professionalID), date)
	if err != nil {
		return Base{}, err
	}
	var bizExc model.DateException
	var bizFound bool
	if businessID != "" {
		bizExc, bizFound, err = c.exception(ctx, model.BusinessScope(businessID), date)
		if err != nil {
			return Base{}, err
		}
	}
	if (proFound && proExc.Kind == model.ExceptionClosed) || (bizFound && bizExc.Kind == model.ExceptionClosed) {
		return Base{Source: SourceClosed}, nil
	}
	if proFound {
		if w, ok := proExc.Window(c.loc); ok {
			return Base{Range: w, Open: !w.Empty(), Source: SourceProfessionalException}, nil
		}
	}
	if bizFound {
		if w, ok := bizExc.Window(c.loc); ok {
			return Base{Range: w, Open: !w.Empty(), Source: SourceBusinessException}, nil
		}
	}

	wh, found, err := c.weekly(ctx, model.ProfessionalScope(professionalID), date.Weekday())
	if err != nil {
		return Base{}, err
	}
	if found {
		r := wh.On(date, c.loc)
		return Base{Range: r, Open: !r.Empty(), Source: SourceProfessionalWeekly}, nil
	}
	if businessID != "" {
		wh, found, err = c.weekly(ctx, model.BusinessScope(businessID), date.Weekday())
		if err != nil {
			return Base{}, err
		}
		if found {
			r := wh.On(date, c.loc)
			return Base{Range: r, Open: !r.Empty(), Source: SourceBusinessWeekly}, nil
		}
	}
	return Base{Source: SourceNotConfigured}, nil
}

// Free returns the disjoint free intervals of the date.
func (c *Calculator) Free(ctx context.Context, q Query) ([]model.TimeRange, error) {
	if q.ProfessionalID == "" {
		return nil, model.Invalid("professional id is required")
	}
	if q.Date.IsZero() {
		return nil, model.Invalid("date is required")
	}
	date := model.CivilDate(q.Date)

	base, err := c.BaseInterval(ctx, q.ProfessionalID, q.BusinessID, date)
	if err != nil {
		return nil, err
	}
	if !base.Open {
		return nil, nil
	}

	blocks, err := c.src.Blocks.ListBlocks(ctx, q.ProfessionalID, date, date)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	appts, err := c.src.Appointments.ListBusy(ctx, q.ProfessionalID, base.Range.Start, base.Range.End)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	busy := make([]model.TimeRange, 0, len(blocks)+len(appts))
	for _, b := range blocks {
		busy = append(busy, b.Range(c.loc))
	}
	for _, a := range appts {
		if a.ID == q.IgnoreAppointmentID || !a.Status.Occupies() {
			continue
		}
		busy = append(busy, a.Range())
	}
	return Subtract(base.Range, busy), nil
}

// FreeSlots returns the bookable [start, start+duration) candidates of the date in
// chronological order, excluding those starting before now.
func (c *Calculator) FreeSlots(ctx context.Context, q Query, now time.Time) ([]model.TimeRange, error) {
	ctx, span := c.tracer.Start(ctx, "availability.FreeSlots", trace.WithAttributes(
		attribute.String("professional_id", q.ProfessionalID),
		attribute.String("date", model.DateKey(q.Date)),
		attribute.Int64("duration_minutes", int64(q.Duration/time.Minute)),
	))
	defer span.End()

	if q.Duration <= 0 {
		return nil, model.Invalid("service duration must be positive")
	}
	if q.Duration > MaxDuration {
		return nil, model.Invalid("service duration must not exceed %s", MaxDuration)
	}
	free, err := c.Free(ctx, q)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	slots := Candidates(free, q.Duration, now)
	span.SetAttributes(attribute.Int("slots", len(slots)))
	return slots, nil
}

func (c *Calculator) exception(ctx context.Context, scope model.Scope, date time.Time) (model.DateException, bool, error) {
	exc, err := c.src.Exceptions.GetException(ctx, scope, date)
	if errors.Is(err, model.ErrNotFound) {
		return model.DateException{}, false, nil
	}
	if err != nil {
		return model.DateException{}, false, fmt.Errorf("get exception: %w", err)
	}
	if !exc.Active {
		return model.DateException{}, false, nil
	}
	return exc, true, nil
}

func (c *Calculator) weekly(ctx context.Context, scope model.Scope, weekday time.Weekday) (model.WeeklyHours, bool, error) {
	wh, err := c.src.Weekly.GetWeeklyHours(ctx, scope, weekday)
	if errors.Is(err, model.ErrNotFound) {
		return model.WeeklyHours{}, false, nil
	}
	if err != nil {
		return model.WeeklyHours{}, false, fmt.Errorf("get weekly hours: %w", err)
	}
	if !wh.Active {
		return model.WeeklyHours{}, false, nil
	}
	return wh, true, nil
}
