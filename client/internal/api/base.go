// Package api contains the SDK's HTTP call helpers. The Authorization
// header is added by the client's transport wrapper, not here.
package api

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/voxlingua/voxlingua/client/internal/types"
)

// statusError maps a non-success broker response onto the shared sentinels,
// keeping the body for diagnostics.
func statusError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(body))

	var sentinel error
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		sentinel = types.ErrUnauthorized
	case http.StatusTooManyRequests:
		sentinel = types.ErrQuotaExceeded
	case http.StatusNotFound:
		sentinel = types.ErrNotFound
	case http.StatusBadRequest:
		sentinel = types.ErrInvalidInput
	default:
		sentinel = types.ErrUpstream
	}
	if msg == "" {
		return fmt.Errorf("%s: status %d: %w", op, resp.StatusCode, sentinel)
	}
	return fmt.Errorf("%s: status %d: %s: %w", op, resp.StatusCode, msg, sentinel)
}
