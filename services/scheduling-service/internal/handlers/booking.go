package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/booking"
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/model"
)

type createAppointmentRequest struct {
	ClientID       string `json:"client_id"`
	ServiceID      string `json:"service_id"`
	ProfessionalID string `json:"professional_id"`
	StartTime      string `json:"start_time"`
	Notes          string `json:"notes"`
}

type appointmentIDRequest struct {
	AppointmentID string `json:"appointment_id"`
	Reason        string `json:"reason"`
	StartTime     string `json:"start_time"`
}

// Appointments handles POST (book) and GET (by id, or a professional's range).
func (h *Handler) Appointments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req createAppointmentRequest
		if err := decode(r, &req); err != nil {
			badRequest(w, "invalid json body")
			return
		}
		start, err := parseTimestamp("start_time", req.StartTime)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		appt, err := h.booking.Create(r.Context(), booking.CreateRequest{
			ClientID:       strings.TrimSpace(req.ClientID),
			ServiceID:      strings.TrimSpace(req.ServiceID),
			ProfessionalID: strings.TrimSpace(req.ProfessionalID),
			Start:          start,
			Notes:          req.Notes,
		})
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, appt)

	case http.MethodGet:
		q := r.URL.Query()
		if id := strings.TrimSpace(q.Get("id")); id != "" {
			appt, err := h.booking.Get(r.Context(), id)
			if err != nil {
				writeError(w, h.logger, err)
				return
			}
			writeJSON(w, http.StatusOK, appt)
			return
		}
		from, to, err := h.dateRange(q.Get("from"), q.Get("to"))
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		// Whole local days: from 00:00 on the first date to 00:00 after the last one.
		start, end := model.Clock(0).On(from, h.loc), model.Clock(0).On(to.AddDate(0, 0, 1), h.loc)
		list, err := h.booking.ListForProfessional(r.Context(), q.Get("professional_id"), start, end)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": nonNil(list)})

	default:
		methodNotAllowed(w)
	}
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.statusChange(w, r, func(req appointmentIDRequest) (model.Appointment, error) {
		return h.booking.Confirm(r.Context(), req.AppointmentID)
	})
}

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	h.statusChange(w, r, func(req appointmentIDRequest) (model.Appointment, error) {
		return h.booking.Complete(r.Context(), req.AppointmentID)
	})
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.statusChange(w, r, func(req appointmentIDRequest) (model.Appointment, error) {
		return h.booking.Cancel(r.Context(), req.AppointmentID, req.Reason)
	})
}

func (h *Handler) NoShow(w http.ResponseWriter, r *http.Request) {
	h.statusChange(w, r, func(req appointmentIDRequest) (model.Appointment, error) {
		return h.booking.MarkNoShow(r.Context(), req.AppointmentID)
	})
}

func (h *Handler) Rate(w http.ResponseWriter, r *http.Request) {
	h.statusChange(w, r, func(req appointmentIDRequest) (model.Appointment, error) {
		return h.booking.MarkRated(r.Context(), req.AppointmentID)
	})
}

func (h *Handler) Reschedule(w http.ResponseWriter, r *http.Request) {
	h.statusChange(w, r, func(req appointmentIDRequest) (model.Appointment, error) {
		start, err := parseTimestamp("start_time", req.StartTime)
		if err != nil {
			return model.Appointment{}, err
		}
		return h.booking.Reschedule(r.Context(), req.AppointmentID, start)
	})
}

func (h *Handler) statusChange(w http.ResponseWriter, r *http.Request, apply func(appointmentIDRequest) (model.Appointment, error)) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req appointmentIDRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		badRequest(w, "appointment_id is required")
		return
	}
	appt, err := apply(req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"appointment_id": appt.ID,
		"status":         appt.Status,
		"rated":          appt.Rated,
		"start_time":     appt.StartTime.Format(time.RFC3339),
		"end_time":       appt.EndTime.Format(time.RFC3339),
		"updated_at":     appt.UpdatedAt.Format(time.RFC3339),
	})
}
