package schedule_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/memstore"
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/schedule"
)

var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func newService() *schedule.Service {
	st := memstore.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return schedule.NewService(schedule.Stores{Weekly: st, Exceptions: st, Blocks: st}, time.UTC, logger)
}

func clk(s string) model.Clock { return model.MustClock(s) }

func TestWeeklyHours_UpsertAndDeactivate(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	scope := model.ProfessionalScope("pro-1")

	if _, err := svc.SetWeeklyHours(ctx, scope, time.Monday, clk("18:00"), clk("09:00")); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error for open >= close, got %v", err)
	}
	if _, err := svc.SetWeeklyHours(ctx, scope, time.Weekday(7), clk("09:00"), clk("18:00")); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error for weekday 7, got %v", err)
	}

	first, err := svc.SetWeeklyHours(ctx, scope, time.Monday, clk("09:00"), clk("18:00"))
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	second, err := svc.SetWeeklyHours(ctx, scope, time.Monday, clk("10:00"), clk("16:00"))
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("replacing the weekday must keep the row id")
	}
	if _, err := svc.SetWeeklyHours(ctx, scope, time.Sunday, clk("10:00"), clk("14:00")); err != nil {
		t.Fatalf("set sunday: %v", err)
	}

	list, err := svc.ListWeeklyHours(ctx, scope)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Weekday != time.Sunday || list[1].Open != clk("10:00") {
		t.Fatalf("unexpected list %+v", list)
	}

	if err := svc.DeactivateWeeklyHours(ctx, scope, time.Monday); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, ok, err := svc.GetWeeklyHours(ctx, scope, time.Monday); err != nil || ok {
		t.Fatalf("deactivated weekday must read as not configured, got %v %v", ok, err)
	}
}

func TestExceptions_UpsertPerScopeAndDate(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	scope := model.BusinessScope("biz-1")
	open, close := clk("10:00"), clk("14:00")

	if _, err := svc.SetException(ctx, schedule.ExceptionInput{Scope: scope, Date: monday, Kind: model.ExceptionSpecialHours, Open: &open}); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("special hours without close must fail, got %v", err)
	}
	if _, err := svc.SetException(ctx, schedule.ExceptionInput{Scope: scope, Date: monday, Kind: model.ExceptionClosed, Open: &open, Close: &close}); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("closed with times must fail, got %v", err)
	}

	if _, err := svc.SetException(ctx, schedule.ExceptionInput{Scope: scope, Date: monday.Add(15 * time.Hour), Kind: model.ExceptionClosed, Description: "holiday"}); err != nil {
		t.Fatalf("closed: %v", err)
	}
	if _, err := svc.SetException(ctx, schedule.ExceptionInput{Scope: scope, Date: monday, Kind: model.ExceptionSpecialHours, Open: &open, Close: &close}); err != nil {
		t.Fatalf("special: %v", err)
	}
	if _, err := svc.SetException(ctx, schedule.ExceptionInput{Scope: scope, Date: monday.AddDate(0, 0, 3), Kind: model.ExceptionClosed}); err != nil {
		t.Fatalf("thursday: %v", err)
	}

	got, ok, err := svc.GetException(ctx, scope, monday)
	if err != nil || !ok {
		t.Fatalf("get: %v %v", ok, err)
	}
	if got.Kind != model.ExceptionSpecialHours {
		t.Fatalf("second write must replace the first, got %s", got.Kind)
	}

	list, err := svc.ListExceptions(ctx, scope, monday, monday.AddDate(0, 0, 6))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || !list[0].Date.Equal(monday) {
		t.Fatalf("expected one row per date in order, got %+v", list)
	}

	if err := svc.DeleteException(ctx, scope, monday); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := svc.GetException(ctx, scope, monday); ok {
		t.Fatal("deleted exception must not be returned")
	}
	if _, err := svc.ListExceptions(ctx, scope, monday, monday.AddDate(0, 0, -1)); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("inverted range must fail, got %v", err)
	}
}

func TestBlocks_CreateListOverlapDelete(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	in := schedule.BlockInput{ProfessionalID: "pro-1", Date: monday, Start: clk("12:00"), End: clk("13:00"), Reason: "lunch", CreatedBy: model.BlockByProfessional}

	bad := in
	bad.End = clk("12:00")
	if _, err := svc.CreateBlock(ctx, bad); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	if _, err := svc.CreateBlock(ctx, in); err != nil {
		t.Fatalf("create: %v", err)
	}
	early := in
	early.Start, early.End = clk("09:00"), clk("09:30")
	early.CreatedBy = model.BlockByBusiness
	if _, err := svc.CreateBlock(ctx, early); err != nil {
		t.Fatalf("create early: %v", err)
	}
	// Overlapping blocks are accepted.
	if _, err := svc.CreateBlock(ctx, in); err != nil {
		t.Fatalf("overlapping create: %v", err)
	}

	blocks, err := svc.ListBlocks(ctx, "pro-1", monday)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(blocks) != 3 || blocks[0].Start != clk("09:00") {
		t.Fatalf("expected 3 ordered blocks, got %+v", blocks)
	}

	overlap, err := svc.HasOverlap(ctx, "pro-1", monday, clk("12:30"), clk("14:00"))
	if err != nil || !overlap {
		t.Fatalf("expected overlap, got %v %v", overlap, err)
	}
	overlap, err = svc.HasOverlap(ctx, "pro-1", monday, clk("13:00"), clk("14:00"))
	if err != nil || overlap {
		t.Fatalf("touching block must not overlap, got %v %v", overlap, err)
	}

	if err := svc.DeleteBlock(ctx, blocks[0].ID); err != nil {
		t.Fatalf("delete one: %v", err)
	}
	n, err := svc.DeleteBlocksForDate(ctx, "pro-1", monday)
	if err != nil || n != 2 {
		t.Fatalf("bulk delete = %d, %v", n, err)
	}
	if err := svc.DeleteBlock(ctx, blocks[0].ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestApplyRecurringBlock(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	in := schedule.RecurringBlockInput{
		BlockInput: schedule.BlockInput{ProfessionalID: "pro-1", Start: clk("12:00"), End: clk("13:00"), Reason: "lunch", CreatedBy: model.BlockByBusiness},
		From:       monday,
		To:         monday.AddDate(0, 0, 13),
		Weekdays:   []time.Weekday{time.Monday, time.Wednesday},
	}
	created, err := svc.ApplyRecurringBlock(ctx, in)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(created) != 4 {
		t.Fatalf("expected 4 blocks over two weeks, got %d", len(created))
	}
	for _, b := range created {
		if wd := b.Date.Weekday(); wd != time.Monday && wd != time.Wednesday {
			t.Fatalf("block on %s", wd)
		}
	}
	all, err := svc.ListBlocksRange(ctx, "pro-1", monday, monday.AddDate(0, 0, 13))
	if err != nil || len(all) != 4 {
		t.Fatalf("range list = %d, %v", len(all), err)
	}

	in.Weekdays = nil
	if _, err := svc.ApplyRecurringBlock(ctx, in); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error without weekdays, got %v", err)
	}
}
