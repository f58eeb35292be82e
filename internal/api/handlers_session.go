package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/voxlingua/voxlingua/internal/api/respond"
	"github.com/voxlingua/voxlingua/internal/auth"
	"github.com/voxlingua/voxlingua/internal/metrics"
	"github.com/voxlingua/voxlingua/internal/model"
	"github.com/voxlingua/voxlingua/internal/services"
)

type SessionHandler struct {
	svc *services.SessionService
}

func NewSessionHandler(svc *services.SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// CreateSession POST /session
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	token, err := auth.ExtractBearerToken(r)
	if err != nil {
		metrics.AdmissionRejectedTotal.WithLabelValues("unauthorized").Inc()
		respond.WriteUnauthorized(w, err.Error())
		return
	}

	var req struct {
		SituationID    string `json:"situationId"`
		PromptOverride string `json:"promptOverride"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}

	desc, err := h.svc.RequestSession(r.Context(), token, req.SituationID, req.PromptOverride)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrUnauthorized):
			metrics.AdmissionRejectedTotal.WithLabelValues("unauthorized").Inc()
			respond.WriteUnauthorized(w, "invalid or expired token")
		case errors.Is(err, model.ErrQuotaExceeded):
			metrics.AdmissionRejectedTotal.WithLabelValues("quota").Inc()
			respond.WriteTooManyRequests(w, err.Error())
		case errors.Is(err, model.ErrNotFound):
			metrics.AdmissionRejectedTotal.WithLabelValues("not_found").Inc()
			respond.WriteNotFound(w, "situation not found")
		case errors.Is(err, model.ErrNotConfigured):
			metrics.AdmissionRejectedTotal.WithLabelValues("config").Inc()
			respond.WriteInternalError(w, err.Error())
		case errors.Is(err, model.ErrUpstream):
			metrics.AdmissionRejectedTotal.WithLabelValues("upstream").Inc()
			// Surface the upstream body verbatim for diagnosability.
			respond.WriteInternalError(w, err.Error())
		default:
			respond.WriteInternalError(w, err.Error())
		}
		return
	}

	metrics.SessionsIssuedTotal.Inc()
	respond.WriteJSON(w, http.StatusOK, desc)
}
