package types

import "errors"

// Sentinel errors the API helpers map HTTP failures onto. The client package
// re-exports them so callers compare against a single symbol.
var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrQuotaExceeded = errors.New("daily quota exceeded")
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUpstream      = errors.New("upstream service error")
)
