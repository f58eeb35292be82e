package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/voxlingua/voxlingua/internal/api/respond"
	"github.com/voxlingua/voxlingua/internal/conversationlog"
	"github.com/voxlingua/voxlingua/internal/metrics"
	"github.com/voxlingua/voxlingua/internal/model"
)

type LogHandler struct {
	sink *conversationlog.Sink
}

func NewLogHandler(sink *conversationlog.Sink) *LogHandler {
	return &LogHandler{sink: sink}
}

// AppendEvents POST /log
// No auth: batches may arrive after the session (and its token) are gone,
// and the payload carries no privileged operation.
func (h *LogHandler) AppendEvents(w http.ResponseWriter, r *http.Request) {
	var batch model.EventBatch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		respond.WriteBadRequest(w, "Invalid log payload")
		return
	}

	if err := h.sink.Append(r.Context(), batch); err != nil {
		if errors.Is(err, model.ErrInvalidInput) {
			respond.WriteBadRequest(w, err.Error())
			return
		}
		respond.WriteInternalError(w, "failed to save log")
		return
	}

	if len(batch.Events) > 0 {
		metrics.LogBatchesTotal.Inc()
		metrics.LogEventsTotal.Add(float64(len(batch.Events)))
	}
	respond.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
