package model

import (
	"strings"
	"time"
)

type ScopeKind string

const (
	ScopeBusiness     ScopeKind = "BUSINESS"
	ScopeProfessional ScopeKind = "PROFESSIONAL"
)

// Scope identifies who a weekly rule or date exception applies to.
type Scope struct {
	Kind ScopeKind `json:"kind"`
	ID   string    `json:"id"`
}

func BusinessScope(id string) Scope     { return Scope{Kind: ScopeBusiness, ID: id} }
func ProfessionalScope(id string) Scope { return Scope{Kind: ScopeProfessional, ID: id} }

func (s Scope) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return Invalid("scope id is required")
	}
	switch s.Kind {
	case ScopeBusiness, ScopeProfessional:
		return nil
	default:
		return Invalid("unknown scope kind %q", s.Kind)
	}
}

type WeeklyHours struct {
	ID        string       `json:"id"`
	Scope     Scope        `json:"scope"`
	Weekday   time.Weekday `json:"weekday"`
	Open      Clock        `json:"open"`
	Close     Clock        `json:"close"`
	Active    bool         `json:"active"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (w WeeklyHours) Validate() error {
	if err := w.Scope.Validate(); err != nil {
		return err
	}
	if w.Weekday < time.Sunday || w.Weekday > time.Saturday {
		return Invalid("weekday must be between 0 and 6, got %d", w.Weekday)
	}
	return validateWindow(w.Open, w.Close)
}

// On returns the open window for the given date in loc.
func (w WeeklyHours) On(date time.Time, loc *time.Location) TimeRange {
	return TimeRange{Start: w.Open.On(date, loc), End: w.Close.On(date, loc)}
}

type ExceptionKind string

const (
	ExceptionClosed       ExceptionKind = "CLOSED"
	ExceptionSpecialHours ExceptionKind = "SPECIAL_HOURS"
)

// DateException overrides the weekly rule of its scope for one calendar date.
// Open and Close are set only for SPECIAL_HOURS.
type DateException struct {
	ID          string        `json:"id"`
	Scope       Scope         `json:"scope"`
	Date        time.Time     `json:"date"`
	Kind        ExceptionKind `json:"kind"`
	Open        *Clock        `json:"open,omitempty"`
	Close       *Clock        `json:"close,omitempty"`
	Description string        `json:"description"`
	Active      bool          `json:"active"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (e DateException) Validate() error {
	if err := e.Scope.Validate(); err != nil {
		return err
	}
	if e.Date.IsZero() {
		return Invalid("exception date is required")
	}
	switch e.Kind {
	case ExceptionClosed:
		if e.Open != nil || e.Close != nil {
			return Invalid("CLOSED exception must not carry open/close times")
		}
		return nil
	case ExceptionSpecialHours:
		if e.Open == nil || e.Close == nil {
			return Invalid("SPECIAL_HOURS exception requires open and close times")
		}
		return validateWindow(*e.Open, *e.Close)
	default:
		return Invalid("unknown exception kind %q", e.Kind)
	}
}

// Window returns the special-hours window on the exception's date.
func (e DateException) Window(loc *time.Location) (TimeRange, bool) {
	if e.Kind != ExceptionSpecialHours || e.Open == nil || e.Close == nil {
		return TimeRange{}, false
	}
	return TimeRange{Start: e.Open.On(e.Date, loc), End: e.Close.On(e.Date, loc)}, true
}

type BlockOrigin string

const (
	BlockByBusiness     BlockOrigin = "BUSINESS"
	BlockByProfessional BlockOrigin = "PROFESSIONAL"
)

// BlockedSlot removes [Start, End) on Date from a professional's availability.
type BlockedSlot struct {
	ID             string      `json:"id"`
	ProfessionalID string      `json:"professional_id"`
	Date           time.Time   `json:"date"`
	Start          Clock       `json:"start"`
	End            Clock       `json:"end"`
	Reason         string      `json:"reason"`
	CreatedBy      BlockOrigin `json:"created_by"`
	CreatedAt      time.Time   `json:"created_at"`
}

func (b BlockedSlot) Validate() error {
	if strings.TrimSpace(b.ProfessionalID) == "" {
		return Invalid("professional id is required")
	}
	if b.Date.IsZero() {
		return Invalid("block date is required")
	}
	switch b.CreatedBy {
	case BlockByBusiness, BlockByProfessional:
	default:
		return Invalid("unknown block origin %q", b.CreatedBy)
	}
	return validateWindow(b.Start, b.End)
}

func (b BlockedSlot) Range(loc *time.Location) TimeRange {
	return TimeRange{Start: b.Start.On(b.Date, loc), End: b.End.On(b.Date, loc)}
}

func validateWindow(open, close Clock) error {
	if !open.Valid() || !close.Valid() {
		return Invalid("time of day out of range")
	}
	if open >= close {
		return Invalid("start %s must be before end %s", open, close)
	}
	return nil
}
