package availability

import (
	"slices"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/model"
)

// Subtract removes every busy interval from base and returns the remaining gaps in
// chronological order. Busy intervals are clipped to base, sorted and merged first.
func Subtract(base model.TimeRange, busy []model.TimeRange) []model.TimeRange {
	if base.Empty() {
		return nil
	}
	clipped := make([]model.TimeRange, 0, len(busy))
	for _, b := range busy {
		if !b.Overlaps(base) {
			continue
		}
		if b.Start.Before(base.Start) {
			b.Start = base.Start
		}
		if b.End.After(base.End) {
			b.End = base.End
		}
		clipped = append(clipped, b)
	}
	if len(clipped) == 0 {
		return []model.TimeRange{base}
	}

	var out []model.TimeRange
	cursor := base.Start
	for _, m := range Merge(clipped) {
		if m.Start.After(cursor) {
			out = append(out, model.TimeRange{Start: cursor, End: m.Start})
		}
		if m.End.After(cursor) {
			cursor = m.End
		}
	}
	if base.End.After(cursor) {
		out = append(out, model.TimeRange{Start: cursor, End: base.End})
	}
	return out
}

// Merge sorts intervals by start and joins the ones that overlap. Touching intervals are
// joined too since they leave no gap between them.
func Merge(in []model.TimeRange) []model.TimeRange {
	if len(in) == 0 {
		return nil
	}
	sorted := slices.Clone(in)
	slices.SortFunc(sorted, func(a, b model.TimeRange) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return a.End.Compare(b.End)
	})

	merged := make([]model.TimeRange, 0, len(sorted))
	for _, cur := range sorted {
		if cur.Empty() {
			continue
		}
		if len(merged) == 0 {
			merged = append(merged, cur)
			continue
		}
		last := &merged[len(merged)-1]
		if cur.Start.After(last.End) {
			merged = append(merged, cur)
			continue
		}
		if cur.End.After(last.End) {
			last.End = cur.End
		}
	}
	return merged
}

// Candidates steps through each free interval by duration and returns every
// [t, t+duration) that fits inside it and does not start before now.
func Candidates(free []model.TimeRange, duration time.Duration, now time.Time) []model.TimeRange {
	if duration <= 0 {
		return nil
	}
	var slots []model.TimeRange
	for _, f := range free {
		for t := f.Start; !t.Add(duration).After(f.End); t = t.Add(duration) {
			if t.Before(now) {
				continue
			}
			slots = append(slots, model.TimeRange{Start: t, End: t.Add(duration)})
		}
	}
	return slots
}

// Contains reports whether one of the slots starts exactly at start.
func Contains(slots []model.TimeRange, start time.Time) bool {
	for _, s := range slots {
		if s.Start.Equal(start) {
			return true
		}
	}
	return false
}
