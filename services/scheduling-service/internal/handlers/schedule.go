package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/schedule"
)

type weeklyRequest struct {
	ScopeKind string `json:"scope_kind"`
	ScopeID   string `json:"scope_id"`
	Weekday   *int   `json:"weekday"`
	Open      string `json:"open"`
	Close     string `json:"close"`
}

// Weekly handles PUT (upsert), GET (one weekday or the whole week) and DELETE
// (deactivate) for weekly hours.
func (h *Handler) Weekly(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPut:
		var req weeklyRequest
		if err := decode(r, &req); err != nil {
			badRequest(w, "invalid json body")
			return
		}
		if req.Weekday == nil {
			badRequest(w, "weekday is required")
			return
		}
		scope, err := scopeFrom(req.ScopeKind, req.ScopeID)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		open, err := model.ParseClock(req.Open)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		closing, err := model.ParseClock(req.Close)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		wh, err := h.schedule.SetWeeklyHours(r.Context(), scope, time.Weekday(*req.Weekday), open, closing)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, wh)

	case http.MethodGet:
		q := r.URL.Query()
		scope, err := scopeFrom(q.Get("scope_kind"), q.Get("scope_id"))
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		if raw := q.Get("weekday"); raw != "" {
			wd, err := parseWeekday(raw)
			if err != nil {
				writeError(w, h.logger, err)
				return
			}
			wh, ok, err := h.schedule.GetWeeklyHours(r.Context(), scope, wd)
			if err != nil {
				writeError(w, h.logger, err)
				return
			}
			if !ok {
				writeJSON(w, http.StatusOK, map[string]any{"configured": false, "weekday": int(wd)})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"configured": true, "hours": wh})
			return
		}
		list, err := h.schedule.ListWeeklyHours(r.Context(), scope)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": nonNil(list)})

	case http.MethodDelete:
		q := r.URL.Query()
		scope, err := scopeFrom(q.Get("scope_kind"), q.Get("scope_id"))
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		wd, err := parseWeekday(q.Get("weekday"))
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		if err := h.schedule.DeactivateWeeklyHours(r.Context(), scope, wd); err != nil {
			writeError(w, h.logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w)
	}
}

type exceptionRequest struct {
	ScopeKind   string `json:"scope_kind"`
	ScopeID     string `json:"scope_id"`
	Date        string `json:"date"`
	Kind        string `json:"kind"`
	Open        string `json:"open"`
	Close       string `json:"close"`
	Description string `json:"description"`
}

func (h *Handler) Exceptions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPut:
		var req exceptionRequest
		if err := decode(r, &req); err != nil {
			badRequest(w, "invalid json body")
			return
		}
		scope, err := scopeFrom(req.ScopeKind, req.ScopeID)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		date, err := model.ParseDate(req.Date)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		open, err := parseClockPtr(req.Open)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		closing, err := parseClockPtr(req.Close)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		exc, err := h.schedule.SetException(r.Context(), schedule.ExceptionInput{
			Scope:       scope,
			Date:        date,
			Kind:        model.ExceptionKind(strings.ToUpper(strings.TrimSpace(req.Kind))),
			Open:        open,
			Close:       closing,
			Description: req.Description,
		})
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, exc)

	case http.MethodGet:
		q := r.URL.Query()
		scope, err := scopeFrom(q.Get("scope_kind"), q.Get("scope_id"))
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		if raw := q.Get("date"); raw != "" {
			date, err := model.ParseDate(raw)
			if err != nil {
				writeError(w, h.logger, err)
				return
			}
			exc, ok, err := h.schedule.GetException(r.Context(), scope, date)
			if err != nil {
				writeError(w, h.logger, err)
				return
			}
			if !ok {
				writeError(w, h.logger, model.ErrNotFound)
				return
			}
			writeJSON(w, http.StatusOK, exc)
			return
		}
		from, to, err := h.dateRange(q.Get("from"), q.Get("to"))
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		list, err := h.schedule.ListExceptions(r.Context(), scope, from, to)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": nonNil(list)})

	case http.MethodDelete:
		q := r.URL.Query()
		scope, err := scopeFrom(q.Get("scope_kind"), q.Get("scope_id"))
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		date, err := model.ParseDate(q.Get("date"))
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		if err := h.schedule.DeleteException(r.Context(), scope, date); err != nil {
			writeError(w, h.logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w)
	}
}

type blockRequest struct {
	ProfessionalID string `json:"professional_id"`
	Date           string `json:"date"`
	Start          string `json:"start"`
	End            string `json:"end"`
	Reason         string `json:"reason"`
}

func (req blockRequest) input(origin model.BlockOrigin) (schedule.BlockInput, error) {
	in := schedule.BlockInput{ProfessionalID: req.ProfessionalID, Reason: req.Reason, CreatedBy: origin}
	var err error
	if req.Date != "" {
		if in.Date, err = model.ParseDate(req.Date); err != nil {
			return schedule.BlockInput{}, err
		}
	}
	if in.Start, err = model.ParseClock(req.Start); err != nil {
		return schedule.BlockInput{}, err
	}
	if in.End, err = model.ParseClock(req.End); err != nil {
		return schedule.BlockInput{}, err
	}
	return in, nil
}

// Blocks handles POST (create), GET (one date or a range) and DELETE (by id, or every
// block of a professional's date).
func (h *Handler) Blocks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		origin, ok := blockOrigin(r)
		if !ok {
			writeJSON(w, http.StatusForbidden, errorBody{Error: "X-Role must be owner, admin or professional", Code: "forbidden"})
			return
		}
		var req blockRequest
		if err := decode(r, &req); err != nil {
			badRequest(w, "invalid json body")
			return
		}
		in, err := req.input(origin)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		if rejectOverlap, _ := strconv.ParseBool(r.URL.Query().Get("reject_overlap")); rejectOverlap {
			taken, err := h.schedule.HasOverlap(r.Context(), in.ProfessionalID, in.Date, in.Start, in.End)
			if err != nil {
				writeError(w, h.logger, err)
				return
			}
			if taken {
				writeJSON(w, http.StatusConflict, errorBody{Error: "block overlaps an existing block", Code: "block_overlap"})
				return
			}
		}
		b, err := h.schedule.CreateBlock(r.Context(), in)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, b)

	case http.MethodGet:
		q := r.URL.Query()
		proID := strings.TrimSpace(q.Get("professional_id"))
		var from, to time.Time
		var err error
		if raw := q.Get("date"); raw != "" {
			from, err = model.ParseDate(raw)
			to = from
		} else {
			from, to, err = h.dateRange(q.Get("from"), q.Get("to"))
		}
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		list, err := h.schedule.ListBlocksRange(r.Context(), proID, from, to)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": nonNil(list)})

	case http.MethodDelete:
		if _, ok := blockOrigin(r); !ok {
			writeJSON(w, http.StatusForbidden, errorBody{Error: "X-Role must be owner, admin or professional", Code: "forbidden"})
			return
		}
		q := r.URL.Query()
		if id := strings.TrimSpace(q.Get("id")); id != "" {
			if err := h.schedule.DeleteBlock(r.Context(), id); err != nil {
				writeError(w, h.logger, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}
		date, err := model.ParseDate(q.Get("date"))
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		n, err := h.schedule.DeleteBlocksForDate(r.Context(), q.Get("professional_id"), date)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": n})

	default:
		methodNotAllowed(w)
	}
}

func (h *Handler) BlockOverlap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	q := r.URL.Query()
	date, err := model.ParseDate(q.Get("date"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	start, err := model.ParseClock(q.Get("start"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	end, err := model.ParseClock(q.Get("end"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	taken, err := h.schedule.HasOverlap(r.Context(), q.Get("professional_id"), date, start, end)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"overlap": taken})
}

type recurringBlockRequest struct {
	blockRequest
	From     string `json:"from"`
	To       string `json:"to"`
	Weekdays []int  `json:"weekdays"`
}

func (h *Handler) RecurringBlocks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	origin, ok := blockOrigin(r)
	if !ok {
		writeJSON(w, http.StatusForbidden, errorBody{Error: "X-Role must be owner, admin or professional", Code: "forbidden"})
		return
	}
	var req recurringBlockRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	in, err := req.input(origin)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	from, to, err := h.dateRange(req.From, req.To)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	weekdays := make([]time.Weekday, 0, len(req.Weekdays))
	for _, d := range req.Weekdays {
		if d < 0 || d > 6 {
			writeError(w, h.logger, model.Invalid("weekday must be between 0 and 6, got %d", d))
			return
		}
		weekdays = append(weekdays, time.Weekday(d))
	}
	created, err := h.schedule.ApplyRecurringBlock(r.Context(), schedule.RecurringBlockInput{
		BlockInput: in, From: from, To: to, Weekdays: weekdays,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"items": nonNil(created)})
}

// blockOrigin maps the caller's role, set by the gateway, to the block origin.
func blockOrigin(r *http.Request) (model.BlockOrigin, bool) {
	switch strings.ToLower(strings.TrimSpace(r.Header.Get("X-Role"))) {
	case "owner", "admin":
		return model.BlockByBusiness, true
	case "professional":
		return model.BlockByProfessional, true
	default:
		return "", false
	}
}

func parseWeekday(raw string) (time.Weekday, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 || n > 6 {
		return 0, model.Invalid("weekday must be between 0 and 6, got %q", raw)
	}
	return time.Weekday(n), nil
}

func (h *Handler) dateRange(rawFrom, rawTo string) (time.Time, time.Time, error) {
	from, err := model.ParseDate(rawFrom)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := model.ParseDate(rawTo)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
