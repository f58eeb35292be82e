package client

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// debugTransport logs each request's method, URL, status, and latency.
type debugTransport struct {
	base http.RoundTripper
}

func (t *debugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	start := time.Now()
	resp, err := base.RoundTrip(req)
	evt := log.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Dur("elapsed", time.Since(start))
	if err != nil {
		evt.Err(err).Msg("http request failed")
		return resp, err
	}
	evt.Int("status", resp.StatusCode).Msg("http request")
	return resp, nil
}
