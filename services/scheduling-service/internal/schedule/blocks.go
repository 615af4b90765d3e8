package schedule

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/model"
)

type BlockInput struct {
	ProfessionalID string
	Date           time.Time
	Start          model.Clock
	End            model.Clock
	Reason         string
	CreatedBy      model.BlockOrigin
}

func (in BlockInput) slot() model.BlockedSlot {
	b := model.BlockedSlot{
		ProfessionalID: strings.TrimSpace(in.ProfessionalID),
		Start:          in.Start,
		End:            in.End,
		Reason:         strings.TrimSpace(in.Reason),
		CreatedBy:      in.CreatedBy,
	}
	if !in.Date.IsZero() {
		b.Date = model.CivilDate(in.Date)
	}
	return b
}

// CreateBlock stores a blocked interval. Overlap with existing blocks is allowed; callers
// that want to refuse double blocking check HasOverlap first.
func (s *Service) CreateBlock(ctx context.Context, in BlockInput) (model.BlockedSlot, error) {
	b := in.slot()
	if err := b.Validate(); err != nil {
		return model.BlockedSlot{}, err
	}
	saved, err := s.stores.Blocks.InsertBlock(ctx, b)
	if err != nil {
		return model.BlockedSlot{}, fmt.Errorf("insert block: %w", err)
	}
	s.logger.Info("block created", "professional_id", b.ProfessionalID, "date", model.DateKey(b.Date), "start", b.Start.String(), "end", b.End.String(), "created_by", b.CreatedBy)
	return saved, nil
}

func (s *Service) ListBlocks(ctx context.Context, professionalID string, date time.Time) ([]model.BlockedSlot, error) {
	return s.ListBlocksRange(ctx, professionalID, date, date)
}

func (s *Service) ListBlocksRange(ctx context.Context, professionalID string, from, to time.Time) ([]model.BlockedSlot, error) {
	if strings.TrimSpace(professionalID) == "" {
		return nil, model.Invalid("professional id is required")
	}
	from, to, err := s.dateRange(from, to)
	if err != nil {
		return nil, err
	}
	return s.stores.Blocks.ListBlocks(ctx, professionalID, from, to)
}

func (s *Service) DeleteBlock(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return model.Invalid("block id is required")
	}
	if err := s.stores.Blocks.DeleteBlock(ctx, id); err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	return nil
}

func (s *Service) DeleteBlocksForDate(ctx context.Context, professionalID string, date time.Time) (int64, error) {
	if strings.TrimSpace(professionalID) == "" {
		return 0, model.Invalid("professional id is required")
	}
	if date.IsZero() {
		return 0, model.Invalid("date is required")
	}
	n, err := s.stores.Blocks.DeleteBlocksForDate(ctx, professionalID, model.CivilDate(date))
	if err != nil {
		return 0, fmt.Errorf("delete blocks: %w", err)
	}
	s.logger.Info("blocks cleared", "professional_id", professionalID, "date", model.DateKey(date), "deleted", n)
	return n, nil
}

// HasOverlap reports whether [start, end) on date intersects an existing block of the
// professional. Touching blocks do not overlap.
func (s *Service) HasOverlap(ctx context.Context, professionalID string, date time.Time, start, end model.Clock) (bool, error) {
	if start >= end {
		return false, model.Invalid("start %s must be before end %s", start, end)
	}
	blocks, err := s.ListBlocks(ctx, professionalID, date)
	if err != nil {
		return false, err
	}
	for _, b := range blocks {
		if b.Start < end && start < b.End {
			return true, nil
		}
	}
	return false, nil
}

type RecurringBlockInput struct {
	BlockInput
	From     time.Time
	To       time.Time
	Weekdays []time.Weekday
}

// ApplyRecurringBlock creates one single-day block on every date in [From, To] whose
// weekday is listed, for example a daily lunch break.
func (s *Service) ApplyRecurringBlock(ctx context.Context, in RecurringBlockInput) ([]model.BlockedSlot, error) {
	from, to, err := s.dateRange(in.From, in.To)
	if err != nil {
		return nil, err
	}
	if len(in.Weekdays) == 0 {
		return nil, model.Invalid("at least one weekday is required")
	}
	if to.Sub(from) > 366*24*time.Hour {
		return nil, model.Invalid("recurring range must not exceed one year")
	}
	template := in.BlockInput
	template.Date = from
	if err := template.slot().Validate(); err != nil {
		return nil, err
	}

	var created []model.BlockedSlot
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if !slices.Contains(in.Weekdays, d.Weekday()) {
			continue
		}
		b := in.BlockInput
		b.Date = d
		saved, err := s.CreateBlock(ctx, b)
		if err != nil {
			return created, err
		}
		created = append(created, saved)
	}
	return created, nil
}
