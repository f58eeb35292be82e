package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/voxlingua/voxlingua/internal/api/respond"
	"github.com/voxlingua/voxlingua/internal/auth"
	"github.com/voxlingua/voxlingua/internal/model"
	"github.com/voxlingua/voxlingua/internal/services"
)

type SituationHandler struct {
	svc      *services.SituationService
	verifier auth.Verifier
}

func NewSituationHandler(svc *services.SituationService, v auth.Verifier) *SituationHandler {
	return &SituationHandler{svc: svc, verifier: v}
}

// List GET /situations
func (h *SituationHandler) List(w http.ResponseWriter, r *http.Request) {
	sits, err := h.svc.List(r.Context())
	if err != nil {
		respond.WriteInternalError(w, "failed to load situations")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"situations": sits})
}

// Get GET /situations/{id}
func (h *SituationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sit, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteNotFound(w, "situation not found")
			return
		}
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"situation": sit})
}

// Update PUT /situations/{id}
// Mutations require a verified identity; reads stay open.
func (h *SituationHandler) Update(w http.ResponseWriter, r *http.Request) {
	token, err := auth.ExtractBearerToken(r)
	if err != nil {
		respond.WriteUnauthorized(w, err.Error())
		return
	}
	if _, err := h.verifier.Verify(r.Context(), token); err != nil {
		respond.WriteUnauthorized(w, "invalid or expired token")
		return
	}

	id := mux.Vars(r)["id"]
	var req model.UpdateSituationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}

	sit, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respond.WriteNotFound(w, "situation not found")
			return
		}
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"situation": sit})
}
