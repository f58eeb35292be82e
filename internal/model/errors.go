package model

import "errors"

var (
	// ErrNotFound is returned when a situation (or other keyed record) does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned for malformed client payloads.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized is returned when the bearer token is missing or rejected.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrQuotaExceeded is returned at admission time when the daily budget is spent.
	ErrQuotaExceeded = errors.New("daily quota exceeded")
	// ErrUpstream is returned when the realtime service answers with a non-success
	// status. The wrapped message carries the upstream body for diagnostics.
	ErrUpstream = errors.New("upstream error")
	// ErrNotConfigured is returned when a required external integration
	// (realtime API key, identity provider) is absent from the configuration.
	ErrNotConfigured = errors.New("not configured")
)
