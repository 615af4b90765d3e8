package availability

import (
	"testing"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/model"
)

var day = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func rng(start, end string) model.TimeRange {
	return model.TimeRange{Start: model.MustClock(start).On(day, time.UTC), End: model.MustClock(end).On(day, time.UTC)}
}

func starts(slots []model.TimeRange) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Start.Format("15:04"))
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSubtract_MergesAndCarves(t *testing.T) {
	base := rng("09:00", "18:00")
	busy := []model.TimeRange{
		rng("12:30", "13:30"),
		rng("12:00", "13:00"),
		rng("08:00", "09:30"),
		rng("17:30", "19:00"),
		rng("20:00", "21:00"),
	}
	got := Subtract(base, busy)
	want := []model.TimeRange{rng("09:30", "12:00"), rng("13:30", "17:30")}
	if len(got) != len(want) {
		t.Fatalf("expected %d gaps, got %v", len(want), got)
	}
	for i := range want {
		if !got[i].Start.Equal(want[i].Start) || !got[i].End.Equal(want[i].End) {
			t.Fatalf("gap %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSubtract_TouchingBusyDoesNotShrink(t *testing.T) {
	base := rng("09:00", "12:00")
	got := Subtract(base, []model.TimeRange{rng("08:00", "09:00"), rng("12:00", "13:00")})
	if len(got) != 1 || !got[0].Start.Equal(base.Start) || !got[0].End.Equal(base.End) {
		t.Fatalf("abutting busy intervals must not reduce the base, got %v", got)
	}
}

func TestSubtract_EmptyBase(t *testing.T) {
	if got := Subtract(rng("09:00", "09:00"), nil); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestCandidates_StepByDuration(t *testing.T) {
	free := Subtract(rng("09:00", "12:00"), []model.TimeRange{rng("10:00", "10:30")})
	got := starts(Candidates(free, 30*time.Minute, day))
	want := []string{"09:00", "09:30", "10:30", "11:00", "11:30"}
	if !equalStrings(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestCandidates_SkipsPast(t *testing.T) {
	now := day.Add(9*time.Hour + 31*time.Minute)
	got := starts(Candidates([]model.TimeRange{rng("09:00", "10:00")}, 15*time.Minute, now))
	// 09:00, 09:15, 09:30 start before now.
	if !equalStrings(got, []string{"09:45"}) {
		t.Fatalf("got %v", got)
	}
}

func TestCandidates_DurationLongerThanGaps(t *testing.T) {
	free := []model.TimeRange{rng("09:00", "09:45"), rng("10:00", "10:40")}
	if got := Candidates(free, time.Hour, day); len(got) != 0 {
		t.Fatalf("expected no slots, got %v", got)
	}
	if got := Candidates(free, 0, day); got != nil {
		t.Fatalf("expected nil for zero duration, got %v", got)
	}
}

func TestContains(t *testing.T) {
	slots := []model.TimeRange{rng("09:00", "09:30"), rng("10:30", "11:00")}
	if !Contains(slots, model.MustClock("10:30").On(day, time.UTC)) {
		t.Fatal("expected 10:30 to be bookable")
	}
	if Contains(slots, model.MustClock("10:00").On(day, time.UTC)) {
		t.Fatal("10:00 must not be bookable")
	}
}
