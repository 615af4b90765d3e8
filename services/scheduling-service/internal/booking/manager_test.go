package booking_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/availability"
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/booking"
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/catalog"
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/memstore"
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/model"
)

// 2026-03-02 is a Monday; "now" is the Sunday before.
var (
	monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	now    = monday.Add(-12 * time.Hour)
)

type fixture struct {
	store  *memstore.Store
	lookup *catalog.Lookup
	mgr    *booking.Manager
	events []model.StatusChange
	mu     sync.Mutex
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := memstore.New()
	f := &fixture{store: st}
	st.SetEventSink(func(_ context.Context, evt model.StatusChange) {
		f.mu.Lock()
		f.events = append(f.events, evt)
		f.mu.Unlock()
	})

	lookup := catalog.NewLookup(st, nil)
	f.lookup = lookup
	mustSave := func(err error) {
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	_, err := lookup.SaveProfessional(ctx, catalog.Professional{ID: "pro-1", BusinessID: "biz-1", Name: "Ana", Profession: catalog.ProfessionBarber, Active: true})
	mustSave(err)
	_, err = lookup.SaveService(ctx, catalog.Service{ID: "cut", BusinessID: "biz-1", Name: "Cut", Tag: "HAIRCUT", DurationMinutes: 30, Active: true})
	mustSave(err)
	_, err = lookup.SaveService(ctx, catalog.Service{ID: "nails", BusinessID: "biz-1", Name: "Nails", Tag: "MANICURE", DurationMinutes: 30, Active: true})
	mustSave(err)
	_, err = st.UpsertWeeklyHours(ctx, model.WeeklyHours{
		Scope: model.BusinessScope("biz-1"), Weekday: time.Monday,
		Open: model.MustClock("09:00"), Close: model.MustClock("12:00"), Active: true,
	})
	mustSave(err)

	calc := availability.NewCalculator(availability.Sources{Weekly: st, Exceptions: st, Blocks: st, Appointments: st}, time.UTC, nil)
	f.mgr = booking.NewManager(st, calc, lookup, time.UTC,
		booking.WithClock(func() time.Time { return now }),
		booking.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	return f
}

func at(clock string) time.Time { return model.MustClock(clock).On(monday, time.UTC) }

func (f *fixture) book(t *testing.T, clock string) model.Appointment {
	t.Helper()
	a, err := f.mgr.Create(context.Background(), booking.CreateRequest{
		ClientID: "client-1", ServiceID: "cut", ProfessionalID: "pro-1", Start: at(clock),
	})
	if err != nil {
		t.Fatalf("book %s: %v", clock, err)
	}
	return a
}

func TestCreate_PendingWithDerivedEnd(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, "09:30")
	if a.Status != model.StatusPending || a.BusinessID != "biz-1" {
		t.Fatalf("unexpected appointment %+v", a)
	}
	if !a.EndTime.Equal(at("10:00")) {
		t.Fatalf("end = %v", a.EndTime)
	}
	if len(f.events) != 1 || f.events[0].Kind != model.EventCreated || f.events[0].NewStatus != model.StatusPending {
		t.Fatalf("expected one created event, got %+v", f.events)
	}
}

func TestCreate_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cases := []struct {
		name string
		req  booking.CreateRequest
		want error
	}{
		{"past start", booking.CreateRequest{ClientID: "c", ServiceID: "cut", ProfessionalID: "pro-1", Start: now.Add(-time.Hour)}, model.ErrValidation},
		{"start equals now", booking.CreateRequest{ClientID: "c", ServiceID: "cut", ProfessionalID: "pro-1", Start: now}, model.ErrValidation},
		{"missing client", booking.CreateRequest{ServiceID: "cut", ProfessionalID: "pro-1", Start: at("09:00")}, model.ErrValidation},
		{"not authorized", booking.CreateRequest{ClientID: "c", ServiceID: "nails", ProfessionalID: "pro-1", Start: at("09:00")}, model.ErrNotAuthorized},
		{"outside hours", booking.CreateRequest{ClientID: "c", ServiceID: "cut", ProfessionalID: "pro-1", Start: at("13:00")}, model.ErrSlotUnavailable},
		{"off grid", booking.CreateRequest{ClientID: "c", ServiceID: "cut", ProfessionalID: "pro-1", Start: at("09:15")}, model.ErrSlotUnavailable},
	}
	for _, tc := range cases {
		if _, err := f.mgr.Create(ctx, tc.req); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestCreate_TakenSlotIsUnavailable(t *testing.T) {
	f := newFixture(t)
	f.book(t, "10:00")
	_, err := f.mgr.Create(context.Background(), booking.CreateRequest{ClientID: "c2", ServiceID: "cut", ProfessionalID: "pro-1", Start: at("10:00")})
	if !errors.Is(err, model.ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable, got %v", err)
	}
}

func TestCreate_ConcurrentRequestsOneWinner(t *testing.T) {
	f := newFixture(t)
	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = f.mgr.Create(context.Background(), booking.CreateRequest{
				ClientID: "client", ServiceID: "cut", ProfessionalID: "pro-1", Start: at("11:00"),
			})
		}(i)
	}
	close(start)
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, model.ErrConcurrentConflict), errors.Is(err, model.ErrSlotUnavailable):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}

	appts, err := f.mgr.ListForProfessional(context.Background(), "pro-1", monday, monday.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i := range appts {
		for j := i + 1; j < len(appts); j++ {
			if appts[i].Status.Occupies() && appts[j].Status.Occupies() && appts[i].Range().Overlaps(appts[j].Range()) {
				t.Fatalf("overlapping appointments %s and %s", appts[i].ID, appts[j].ID)
			}
		}
	}
}

func TestStateMachine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.book(t, "09:00")

	if _, err := f.mgr.Complete(ctx, a.ID); !errors.Is(err, model.ErrInvalidTransition) {
		t.Fatalf("complete on PENDING: expected invalid transition, got %v", err)
	}
	if _, err := f.mgr.MarkNoShow(ctx, a.ID); !errors.Is(err, model.ErrInvalidTransition) {
		t.Fatalf("no-show on PENDING: expected invalid transition, got %v", err)
	}
	if _, err := f.mgr.Confirm(ctx, a.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := f.mgr.Confirm(ctx, a.ID); !errors.Is(err, model.ErrInvalidTransition) {
		t.Fatalf("double confirm: expected invalid transition, got %v", err)
	}
	done, err := f.mgr.Complete(ctx, a.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != model.StatusCompleted || !done.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected completed appointment %+v", done)
	}
	if _, err := f.mgr.Cancel(ctx, a.ID, "too late"); !errors.Is(err, model.ErrInvalidTransition) {
		t.Fatalf("cancel after complete: expected invalid transition, got %v", err)
	}

	kinds := make([]model.EventKind, 0, len(f.events))
	for _, e := range f.events {
		kinds = append(kinds, e.Kind)
	}
	if len(kinds) != 3 || kinds[1] != model.EventConfirmed || kinds[2] != model.EventCompleted {
		t.Fatalf("unexpected events %v", kinds)
	}
	if f.events[2].OldStatus != model.StatusConfirmed || f.events[2].NewStatus != model.StatusCompleted {
		t.Fatalf("unexpected status change %+v", f.events[2])
	}
}

func TestCancel_FreesSlotAndNoShow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.book(t, "09:00")
	canceled, err := f.mgr.Cancel(ctx, a.ID, "sick")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if canceled.CancelReason != "sick" {
		t.Fatalf("reason = %q", canceled.CancelReason)
	}
	b := f.book(t, "09:00")
	if _, err := f.mgr.Confirm(ctx, b.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := f.mgr.MarkNoShow(ctx, b.ID); err != nil {
		t.Fatalf("no-show: %v", err)
	}
	if _, err := f.mgr.Cancel(ctx, b.ID, ""); !errors.Is(err, model.ErrInvalidTransition) {
		t.Fatalf("cancel after no-show: expected invalid transition, got %v", err)
	}
}

func TestMarkRated_OnlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.book(t, "09:00")
	if _, err := f.mgr.MarkRated(ctx, a.ID); !errors.Is(err, model.ErrInvalidTransition) {
		t.Fatalf("rating a PENDING appointment must fail, got %v", err)
	}
	_, _ = f.mgr.Confirm(ctx, a.ID)
	_, _ = f.mgr.Complete(ctx, a.ID)

	rated, err := f.mgr.MarkRated(ctx, a.ID)
	if err != nil || !rated.Rated {
		t.Fatalf("first rating: %+v %v", rated, err)
	}
	if _, err := f.mgr.MarkRated(ctx, a.ID); !errors.Is(err, model.ErrAlreadyRated) || !errors.Is(err, model.ErrInvalidTransition) {
		t.Fatalf("second rating: expected already rated, got %v", err)
	}
}

func TestReschedule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.book(t, "09:00")
	other := f.book(t, "10:00")
	if _, err := f.mgr.Confirm(ctx, a.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if _, err := f.mgr.Reschedule(ctx, a.ID, at("10:00")); !errors.Is(err, model.ErrSlotUnavailable) {
		t.Fatalf("moving onto another booking: expected unavailable, got %v", err)
	}
	// The appointment's own range does not count as busy while it moves.
	moved, err := f.mgr.Reschedule(ctx, a.ID, at("09:30"))
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if moved.Status != model.StatusConfirmed || !moved.StartTime.Equal(at("09:30")) || !moved.EndTime.Equal(at("10:00")) {
		t.Fatalf("unexpected rescheduled appointment %+v", moved)
	}
	last := f.events[len(f.events)-1]
	if last.Kind != model.EventRescheduled || last.PreviousStartTime == nil || !last.PreviousStartTime.Equal(at("09:00")) {
		t.Fatalf("unexpected event %+v", last)
	}

	if _, err := f.mgr.Cancel(ctx, other.ID, ""); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := f.mgr.Reschedule(ctx, other.ID, at("11:00")); !errors.Is(err, model.ErrInvalidTransition) {
		t.Fatalf("rescheduling a canceled appointment must fail, got %v", err)
	}
	if _, err := f.mgr.Reschedule(ctx, "missing", at("11:00")); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

// staleFinder reports the requested window as free regardless of the store, the way a
// reader that checked availability just before another booking committed would.
type staleFinder struct{}

func (staleFinder) FreeSlots(_ context.Context, q availability.Query, _ time.Time) ([]model.TimeRange, error) {
	var out []model.TimeRange
	for c := model.MustClock("09:00"); c+30 <= model.MustClock("12:00"); c += 30 {
		start := c.On(q.Date, time.UTC)
		out = append(out, model.TimeRange{Start: start, End: start.Add(q.Duration)})
	}
	return out, nil
}

func (f *fixture) staleManager() *booking.Manager {
	return booking.NewManager(f.store, staleFinder{}, f.lookup, time.UTC,
		booking.WithClock(func() time.Time { return now }),
		booking.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func TestCreate_CommitConflictAfterStaleAvailability(t *testing.T) {
	f := newFixture(t)
	f.book(t, "10:00")
	before := len(f.events)

	_, err := f.staleManager().Create(context.Background(), booking.CreateRequest{
		ClientID: "client-2", ServiceID: "cut", ProfessionalID: "pro-1", Start: at("10:00"),
	})
	if !errors.Is(err, model.ErrConcurrentConflict) {
		t.Fatalf("expected concurrent conflict, got %v", err)
	}
	if errors.Is(err, model.ErrSlotUnavailable) {
		t.Fatal("a commit-time conflict must not be reported as slot unavailable")
	}
	appts, err := f.store.ListAppointments(context.Background(), "pro-1", monday, monday.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(appts) != 1 {
		t.Fatalf("losing booking must not be stored, got %d rows", len(appts))
	}
	if len(f.events) != before {
		t.Fatalf("losing booking must not emit events, got %+v", f.events[before:])
	}
}

func TestReschedule_CommitConflictAfterStaleAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.book(t, "09:00")
	f.book(t, "10:00")

	_, err := f.staleManager().Reschedule(ctx, a.ID, at("10:00"))
	if !errors.Is(err, model.ErrConcurrentConflict) {
		t.Fatalf("expected concurrent conflict, got %v", err)
	}
	cur, err := f.store.GetAppointment(ctx, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !cur.StartTime.Equal(at("09:00")) {
		t.Fatalf("losing reschedule must leave the appointment in place, start = %v", cur.StartTime)
	}
}
