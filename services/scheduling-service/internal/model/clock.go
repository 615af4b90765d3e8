package model

import (
	"fmt"
	"strings"
	"time"
)

// Clock is a wall-clock time of day in minutes since local midnight. 1440 ("24:00")
// is accepted as a closing time.
type Clock int

const MinutesPerDay Clock = 24 * 60

func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	if s == "24:00" {
		return MinutesPerDay, nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, Invalid("invalid time of day %q, expected HH:MM", s)
	}
	return Clock(t.Hour()*60 + t.Minute()), nil
}

func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Clock) Valid() bool { return c >= 0 && c <= MinutesPerDay }

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// On returns the wall time c in loc on the calendar day of date. The instant is built from
// year, month, day, hour and minute directly, so a day whose local midnight is skipped by a
// DST change still maps to itself.
func (c Clock) On(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, int(c)/60, int(c)%60, 0, 0, loc)
}

func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(b []byte) error {
	v, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

const DateLayout = "2006-01-02"

// Calendar dates are carried as time.Time at 00:00 UTC. Only year, month and day are
// meaningful; wall times are placed on a date with Clock.On.

// CivilDate keeps the year, month and day of t, read in t's own location.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateOf returns the calendar date on which the instant t falls in loc.
func DateOf(t time.Time, loc *time.Location) time.Time {
	return CivilDate(t.In(loc))
}

func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, Invalid("invalid date %q, expected YYYY-MM-DD", s)
	}
	return d, nil
}

// DateKey formats the calendar day of t without converting its location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// TimeRange is a half-open interval [Start, End).
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (r TimeRange) Empty() bool { return !r.End.After(r.Start) }

func (r TimeRange) Duration() time.Duration { return r.End.Sub(r.Start) }

// Overlaps reports whether the ranges share at least one instant. Touching ranges do not overlap.
func (r TimeRange) Overlaps(o TimeRange) bool {
	return r.Start.Before(o.End) && o.Start.Before(r.End)
}

func (r TimeRange) Contains(o TimeRange) bool {
	return !o.Start.Before(r.Start) && !o.End.After(r.End)
}
