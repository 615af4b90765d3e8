package handlers

import (
	"net/http"
	"strings"

	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/catalog"
)

func (h *Handler) Professionals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPut:
		var p catalog.Professional
		if err := decode(r, &p); err != nil {
			badRequest(w, "invalid json body")
			return
		}
		saved, err := h.catalog.SaveProfessional(r.Context(), p)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	case http.MethodGet:
		p, err := h.catalog.Professional(r.Context(), strings.TrimSpace(r.URL.Query().Get("id")))
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"professional": p,
			"profile":      h.catalog.Profiles()[p.Profession],
		})
	default:
		methodNotAllowed(w)
	}
}

func (h *Handler) Services(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPut:
		var s catalog.Service
		if err := decode(r, &s); err != nil {
			badRequest(w, "invalid json body")
			return
		}
		saved, err := h.catalog.SaveService(r.Context(), s)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	case http.MethodGet:
		s, err := h.catalog.Service(r.Context(), strings.TrimSpace(r.URL.Query().Get("id")))
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	default:
		methodNotAllowed(w)
	}
}
