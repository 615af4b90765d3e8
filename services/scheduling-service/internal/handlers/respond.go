package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/model"
)

type errorBody struct {
	Error             string `json:"error"`
	Code              string `json:"code"`
	RetryAvailability bool   `json:"retry_availability,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func methodNotAllowed(w http.ResponseWriter) {
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg, Code: "validation"})
}

// writeError maps domain errors to status codes. Anything unrecognized is a 500 and is
// logged; its text is not returned to the caller.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Code: "validation"})
	case errors.Is(err, model.ErrNotAuthorized):
		writeJSON(w, http.StatusForbidden, errorBody{Error: err.Error(), Code: "not_authorized"})
	case errors.Is(err, model.ErrSlotUnavailable):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error(), Code: "slot_unavailable"})
	case errors.Is(err, model.ErrConcurrentConflict):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error(), Code: "concurrent_conflict", RetryAvailability: true})
	case errors.Is(err, model.ErrInvalidTransition):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Code: "invalid_transition"})
	case errors.Is(err, model.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found", Code: "not_found"})
	default:
		logger.Error("request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error", Code: "internal"})
	}
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func scopeFrom(kind, id string) (model.Scope, error) {
	s := model.Scope{
		Kind: model.ScopeKind(strings.ToUpper(strings.TrimSpace(kind))),
		ID:   strings.TrimSpace(id),
	}
	return s, s.Validate()
}

func parseClockPtr(raw string) (*model.Clock, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	c, err := model.ParseClock(raw)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func parseTimestamp(name, raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, model.Invalid("invalid %s, expected RFC3339", name)
	}
	return t, nil
}
