package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/voxlingua/voxlingua/internal/api/respond"
	"github.com/voxlingua/voxlingua/internal/auth"
	"github.com/voxlingua/voxlingua/internal/metrics"
	"github.com/voxlingua/voxlingua/internal/model"
	"github.com/voxlingua/voxlingua/internal/services"
)

type UsageHandler struct {
	verifier auth.Verifier
	usage    *services.UsageService
	log      zerolog.Logger
}

func NewUsageHandler(v auth.Verifier, u *services.UsageService, log zerolog.Logger) *UsageHandler {
	return &UsageHandler{verifier: v, usage: u, log: log}
}

// Ping POST /usage/ping
// Records observed connected seconds against today's counter and returns the
// updated budget. The client treats this as fire-and-forget; failures here
// must still be visible to operators, hence the error logging.
func (h *UsageHandler) Ping(w http.ResponseWriter, r *http.Request) {
	token, err := auth.ExtractBearerToken(r)
	if err != nil {
		respond.WriteUnauthorized(w, err.Error())
		return
	}
	identity, err := h.verifier.Verify(r.Context(), token)
	if err != nil {
		if errors.Is(err, model.ErrUnauthorized) {
			respond.WriteUnauthorized(w, "invalid or expired token")
			return
		}
		h.log.Error().Err(err).Msg("token verification failed during usage ping")
		respond.WriteInternalError(w, "identity provider unavailable")
		return
	}

	var req struct {
		Seconds int `json:"seconds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}

	usage, err := h.usage.Increment(r.Context(), identity.ID, req.Seconds)
	if err != nil {
		if errors.Is(err, model.ErrInvalidInput) {
			respond.WriteBadRequest(w, err.Error())
			return
		}
		h.log.Error().Err(err).Str("user_id", identity.ID).Msg("usage increment failed")
		respond.WriteInternalError(w, "failed to record usage")
		return
	}

	metrics.UsageSecondsTotal.Add(float64(req.Seconds))
	respond.WriteJSON(w, http.StatusOK, map[string]int{
		"usedSeconds":      usage.UsedSeconds,
		"remainingSeconds": h.usage.Remaining(usage),
	})
}

// Get GET /usage
func (h *UsageHandler) Get(w http.ResponseWriter, r *http.Request) {
	token, err := auth.ExtractBearerToken(r)
	if err != nil {
		respond.WriteUnauthorized(w, err.Error())
		return
	}
	identity, err := h.verifier.Verify(r.Context(), token)
	if err != nil {
		if errors.Is(err, model.ErrUnauthorized) {
			respond.WriteUnauthorized(w, "invalid or expired token")
			return
		}
		respond.WriteInternalError(w, "identity provider unavailable")
		return
	}

	usage, err := h.usage.GetUsage(r.Context(), identity.ID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", identity.ID).Msg("usage read failed")
		respond.WriteInternalError(w, "failed to read usage")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"usageDate":        usage.UsageDate,
		"usedSeconds":      usage.UsedSeconds,
		"remainingSeconds": h.usage.Remaining(usage),
	})
}
