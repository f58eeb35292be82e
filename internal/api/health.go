package api

import (
	"net/http"

	"github.com/voxlingua/voxlingua/internal/api/respond"
	"github.com/voxlingua/voxlingua/internal/store"
)

type HealthHandler struct {
	store store.Store
}

func NewHealthHandler(s store.Store) *HealthHandler {
	return &HealthHandler{store: s}
}

// Check GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// CheckStorage GET /health/db
func (h *HealthHandler) CheckStorage(w http.ResponseWriter, r *http.Request) {
	if err := h.store.HealthPing(r.Context()); err != nil {
		respond.WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
