// Package conversationlog durably batches client-observed protocol events.
// Each append becomes one JSON line in a per-calendar-day file, decoupled
// from the live session's lifetime.
package conversationlog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/voxlingua/voxlingua/internal/model"
)

// Sink appends event batches to per-day JSONL files under dir.
// Appends are serialized with a mutex so concurrent batches interleave as
// whole lines; there is no cross-batch ordering guarantee, deduplication or
// index — delivery is at-least-once and duplicates are tolerated.
type Sink struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
	log zerolog.Logger
}

// New creates a sink writing under dir. The directory is created lazily on
// the first append.
func New(dir string, log zerolog.Logger) *Sink {
	return &Sink{dir: dir, now: time.Now, log: log}
}

// WithClock overrides the sink's clock. Test hook.
func (s *Sink) WithClock(now func() time.Time) *Sink {
	s.now = now
	return s
}

type logLine struct {
	Timestamp   string        `json:"ts"`
	SessionID   string        `json:"sessionId"`
	SituationID string        `json:"situationId,omitempty"`
	Events      []interface{} `json:"events"`
}

// Append validates the batch and writes it as one line to today's file.
// A batch with no events is a no-op. A batch without a sessionId or with a
// nil event sequence is rejected with model.ErrInvalidInput and not written.
func (s *Sink) Append(ctx context.Context, batch model.EventBatch) error {
	if batch.SessionID == "" {
		return fmt.Errorf("%w: sessionId is required", model.ErrInvalidInput)
	}
	if batch.Events == nil {
		return fmt.Errorf("%w: events must be a sequence", model.ErrInvalidInput)
	}
	if len(batch.Events) == 0 {
		return nil
	}

	now := s.now().UTC()
	line, err := json.Marshal(logLine{
		Timestamp:   now.Format(time.RFC3339),
		SessionID:   batch.SessionID,
		SituationID: batch.SituationID,
		Events:      batch.Events,
	})
	if err != nil {
		return fmt.Errorf("%w: events are not serializable: %v", model.ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(s.dir, now.Format("2006-01-02")+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return err
	}

	s.log.Debug().
		Str("session_id", batch.SessionID).
		Int("events", len(batch.Events)).
		Str("file", path).
		Msg("conversation events appended")
	return nil
}
