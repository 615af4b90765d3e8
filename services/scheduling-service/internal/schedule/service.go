package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/model"
)

type WeeklyStore interface {
	UpsertWeeklyHours(ctx context.Context, wh model.WeeklyHours) (model.WeeklyHours, error)
	// GetWeeklyHours returns model.ErrNotFound for an absent or inactive entry.
	GetWeeklyHours(ctx context.Context, scope model.Scope, weekday time.Weekday) (model.WeeklyHours, error)
	ListWeeklyHours(ctx context.Context, scope model.Scope) ([]model.WeeklyHours, error)
	DeactivateWeeklyHours(ctx context.Context, scope model.Scope, weekday time.Weekday) error
}

type ExceptionStore interface {
	// UpsertException replaces any exception already stored for (scope, date).
	UpsertException(ctx context.Context, exc model.DateException) (model.DateException, error)
	GetException(ctx context.Context, scope model.Scope, date time.Time) (model.DateException, error)
	ListExceptions(ctx context.Context, scope model.Scope, from, to time.Time) ([]model.DateException, error)
	DeactivateException(ctx context.Context, scope model.Scope, date time.Time) error
}

type BlockStore interface {
	InsertBlock(ctx context.Context, b model.BlockedSlot) (model.BlockedSlot, error)
	ListBlocks(ctx context.Context, professionalID string, from, to time.Time) ([]model.BlockedSlot, error)
	DeleteBlock(ctx context.Context, id string) error
	DeleteBlocksForDate(ctx context.Context, professionalID string, date time.Time) (int64, error)
}

type Stores struct {
	Weekly     WeeklyStore
	Exceptions ExceptionStore
	Blocks     BlockStore
}

// Service validates schedule writes and normalizes dates to calendar days before they
// reach storage. Writes are last-write-wins.
type Service struct {
	stores Stores
	loc    *time.Location
	logger *slog.Logger
}

func NewService(stores Stores, loc *time.Location, logger *slog.Logger) *Service {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{stores: stores, loc: loc, logger: logger}
}

func (s *Service) Location() *time.Location { return s.loc }

func (s *Service) SetWeeklyHours(ctx context.Context, scope model.Scope, weekday time.Weekday, open, close model.Clock) (model.WeeklyHours, error) {
	wh := model.WeeklyHours{Scope: scope, Weekday: weekday, Open: open, Close: close, Active: true}
	if err := wh.Validate(); err != nil {
		return model.WeeklyHours{}, err
	}
	saved, err := s.stores.Weekly.UpsertWeeklyHours(ctx, wh)
	if err != nil {
		return model.WeeklyHours{}, fmt.Errorf("upsert weekly hours: %w", err)
	}
	s.logger.Info("weekly hours set", "scope_kind", scope.Kind, "scope_id", scope.ID, "weekday", int(weekday), "open", open.String(), "close", close.String())
	return saved, nil
}

// GetWeeklyHours reports configured=false when the weekday is closed at this scope.
func (s *Service) GetWeeklyHours(ctx context.Context, scope model.Scope, weekday time.Weekday) (model.WeeklyHours, bool, error) {
	if err := scope.Validate(); err != nil {
		return model.WeeklyHours{}, false, err
	}
	wh, err := s.stores.Weekly.GetWeeklyHours(ctx, scope, weekday)
	if errors.Is(err, model.ErrNotFound) {
		return model.WeeklyHours{}, false, nil
	}
	if err != nil {
		return model.WeeklyHours{}, false, err
	}
	return wh, true, nil
}

func (s *Service) ListWeeklyHours(ctx context.Context, scope model.Scope) ([]model.WeeklyHours, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	return s.stores.Weekly.ListWeeklyHours(ctx, scope)
}

func (s *Service) DeactivateWeeklyHours(ctx context.Context, scope model.Scope, weekday time.Weekday) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	if err := s.stores.Weekly.DeactivateWeeklyHours(ctx, scope, weekday); err != nil {
		return fmt.Errorf("deactivate weekly hours: %w", err)
	}
	return nil
}

type ExceptionInput struct {
	Scope       model.Scope
	Date        time.Time
	Kind        model.ExceptionKind
	Open        *model.Clock
	Close       *model.Clock
	Description string
}

func (s *Service) SetException(ctx context.Context, in ExceptionInput) (model.DateException, error) {
	exc := model.DateException{
		Scope:       in.Scope,
		Kind:        in.Kind,
		Open:        in.Open,
		Close:       in.Close,
		Description: strings.TrimSpace(in.Description),
		Active:      true,
	}
	if !in.Date.IsZero() {
		exc.Date = model.CivilDate(in.Date)
	}
	if err := exc.Validate(); err != nil {
		return model.DateException{}, err
	}
	saved, err := s.stores.Exceptions.UpsertException(ctx, exc)
	if err != nil {
		return model.DateException{}, fmt.Errorf("upsert exception: %w", err)
	}
	s.logger.Info("date exception set", "scope_kind", in.Scope.Kind, "scope_id", in.Scope.ID, "date", model.DateKey(exc.Date), "kind", exc.Kind)
	return saved, nil
}

// GetException reports found=false when the date has no active exception at this scope.
func (s *Service) GetException(ctx context.Context, scope model.Scope, date time.Time) (model.DateException, bool, error) {
	if err := scope.Validate(); err != nil {
		return model.DateException{}, false, err
	}
	exc, err := s.stores.Exceptions.GetException(ctx, scope, model.CivilDate(date))
	if errors.Is(err, model.ErrNotFound) {
		return model.DateException{}, false, nil
	}
	if err != nil {
		return model.DateException{}, false, err
	}
	return exc, true, nil
}

func (s *Service) ListExceptions(ctx context.Context, scope model.Scope, from, to time.Time) ([]model.DateException, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	from, to, err := s.dateRange(from, to)
	if err != nil {
		return nil, err
	}
	return s.stores.Exceptions.ListExceptions(ctx, scope, from, to)
}

func (s *Service) DeleteException(ctx context.Context, scope model.Scope, date time.Time) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	if err := s.stores.Exceptions.DeactivateException(ctx, scope, model.CivilDate(date)); err != nil {
		return fmt.Errorf("deactivate exception: %w", err)
	}
	return nil
}

func (s *Service) dateRange(from, to time.Time) (time.Time, time.Time, error) {
	if from.IsZero() || to.IsZero() {
		return time.Time{}, time.Time{}, model.Invalid("from and to dates are required")
	}
	from, to = model.CivilDate(from), model.CivilDate(to)
	if to.Before(from) {
		return time.Time{}, time.Time{}, model.Invalid("to date must not be before from date")
	}
	return from, to, nil
}
