package client

// Functional options applied during construction in New. Options run before
// the token transport wrapper is installed, so transport-related options end
// up underneath it.

import (
	"fmt"
	"time"

	"github.com/voxlingua/voxlingua/client/internal/flushq"
)

// Option configures a Client during construction in New.
type Option func(*Client) error

// WithHTTPTimeout sets the broker HTTP client timeout. Prefer per-request
// context deadlines; this is a coarse safety net. Must be greater than zero.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("http timeout must be > 0")
		}
		c.http.Timeout = d
		c.negotiateHTTP.Timeout = d
		return nil
	}
}

// WithRealtimeBaseURL points SDP negotiation at a different realtime
// endpoint. Mainly for tests against a local stand-in.
func WithRealtimeBaseURL(url string) Option {
	return func(c *Client) error {
		if url == "" {
			return fmt.Errorf("realtime base URL cannot be empty")
		}
		c.realtimeBase = url
		return nil
	}
}

// WithFlushQueueConfig replaces the default flush queue tuning.
func WithFlushQueueConfig(cfg flushq.Config) Option {
	return func(c *Client) error {
		c.exec = flushq.New(cfg)
		return nil
	}
}

// WithDebugLogging wraps the broker transport so each request and response
// status is logged. Not for production use.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		if enabled {
			c.http.Transport = &debugTransport{base: c.http.Transport}
		}
		return nil
	}
}
