package client

import (
	"errors"

	"github.com/voxlingua/voxlingua/client/internal/flushq"
	"github.com/voxlingua/voxlingua/client/internal/types"
)

// Re-export the shared sentinels so callers compare against one symbol.
var (
	ErrUnauthorized  = types.ErrUnauthorized
	ErrQuotaExceeded = types.ErrQuotaExceeded
	ErrNotFound      = types.ErrNotFound
	ErrInvalidInput  = types.ErrInvalidInput
	ErrUpstream      = types.ErrUpstream
)

// ErrBackPressure is returned when the flush queue is full.
var ErrBackPressure = flushq.ErrQueueFull

// ErrNoSituation is returned by StartConversation when no situation has
// been selected; the conversation stays Idle.
var ErrNoSituation = errors.New("choose a situation before starting a conversation")

// IsBackPressure reports whether err is a back-pressure error.
func IsBackPressure(err error) bool { return errors.Is(err, ErrBackPressure) }
