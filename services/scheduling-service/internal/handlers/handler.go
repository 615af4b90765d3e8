package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/availability"
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/booking"
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/catalog"
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/schedule"
)

type Handler struct {
	schedule *schedule.Service
	calc     *availability.Calculator
	booking  *booking.Manager
	catalog  *catalog.Lookup
	loc      *time.Location
	now      func() time.Time
	logger   *slog.Logger
}

type Deps struct {
	Schedule *schedule.Service
	Calc     *availability.Calculator
	Booking  *booking.Manager
	Catalog  *catalog.Lookup
	Location *time.Location
	Now      func() time.Time
	Logger   *slog.Logger
}

func New(d Deps) *Handler {
	h := &Handler{
		schedule: d.Schedule,
		calc:     d.Calc,
		booking:  d.Booking,
		catalog:  d.Catalog,
		loc:      d.Location,
		now:      d.Now,
		logger:   d.Logger,
	}
	if h.loc == nil {
		h.loc = time.Local
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// Register mounts the API on mux. Slot search and booking routes are wrapped with guard,
// typically the rate limiter.
func (h *Handler) Register(mux *http.ServeMux, guard httpx.Middleware) {
	if guard == nil {
		guard = func(next http.Handler) http.Handler { return next }
	}
	mux.HandleFunc("/api/v1/schedule/weekly", h.Weekly)
	mux.HandleFunc("/api/v1/schedule/exceptions", h.Exceptions)
	mux.HandleFunc("/api/v1/schedule/blocks", h.Blocks)
	mux.HandleFunc("/api/v1/schedule/blocks/overlap", h.BlockOverlap)
	mux.HandleFunc("/api/v1/schedule/blocks/recurring", h.RecurringBlocks)
	mux.HandleFunc("/api/v1/schedule/base", h.BaseInterval)
	mux.HandleFunc("/api/v1/catalog/professionals", h.Professionals)
	mux.HandleFunc("/api/v1/catalog/services", h.Services)

	mux.Handle("/api/v1/availability/slots", guard(http.HandlerFunc(h.Slots)))
	mux.Handle("/api/v1/appointments", guard(http.HandlerFunc(h.Appointments)))
	mux.Handle("/api/v1/appointments/confirm", guard(http.HandlerFunc(h.Confirm)))
	mux.Handle("/api/v1/appointments/complete", guard(http.HandlerFunc(h.Complete)))
	mux.Handle("/api/v1/appointments/cancel", guard(http.HandlerFunc(h.Cancel)))
	mux.Handle("/api/v1/appointments/no-show", guard(http.HandlerFunc(h.NoShow)))
	mux.Handle("/api/v1/appointments/rate", guard(http.HandlerFunc(h.Rate)))
	mux.Handle("/api/v1/appointments/reschedule", guard(http.HandlerFunc(h.Reschedule)))
}
