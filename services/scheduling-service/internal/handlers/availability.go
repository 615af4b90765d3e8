package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/availability"
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/model"
)

type slotItem struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Slots lists bookable start times. The duration comes from service_id, or from
// duration_minutes when no service is given.
func (h *Handler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	q := r.URL.Query()
	proID := strings.TrimSpace(q.Get("professional_id"))
	if proID == "" {
		badRequest(w, "professional_id is required")
		return
	}
	date, err := model.ParseDate(q.Get("date"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var duration time.Duration
	if svcID := strings.TrimSpace(q.Get("service_id")); svcID != "" {
		duration, err = h.catalog.Duration(r.Context(), svcID)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
	} else {
		mins, err := strconv.Atoi(q.Get("duration_minutes"))
		if err != nil || mins <= 0 || mins > int(model.MinutesPerDay) {
			badRequest(w, "service_id or a duration_minutes between 1 and 1440 is required")
			return
		}
		duration = time.Duration(mins) * time.Minute
	}

	businessID := strings.TrimSpace(q.Get("business_id"))
	if businessID == "" {
		if businessID, err = h.catalog.BusinessOf(r.Context(), proID); err != nil {
			writeError(w, h.logger, err)
			return
		}
	}

	slots, err := h.calc.FreeSlots(r.Context(), availability.Query{
		BusinessID:     businessID,
		ProfessionalID: proID,
		Date:           date,
		Duration:       duration,
	}, h.now())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	items := make([]slotItem, 0, len(slots))
	for _, s := range slots {
		items = append(items, slotItem{StartTime: s.Start.In(h.loc).Format(time.RFC3339), EndTime: s.End.In(h.loc).Format(time.RFC3339)})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"professional_id":  proID,
		"date":             model.DateKey(date),
		"duration_minutes": int(duration / time.Minute),
		"slots":            items,
	})
}

// BaseInterval reports which rule decided a date's opening hours.
func (h *Handler) BaseInterval(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	q := r.URL.Query()
	proID := strings.TrimSpace(q.Get("professional_id"))
	if proID == "" {
		badRequest(w, "professional_id is required")
		return
	}
	date, err := model.ParseDate(q.Get("date"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	base, err := h.calc.BaseInterval(r.Context(), proID, strings.TrimSpace(q.Get("business_id")), date)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, base)
}
