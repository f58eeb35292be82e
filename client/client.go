// Package client is the Go SDK for the voxlingua service. It wraps the
// broker's HTTP surface, runs fire-and-forget calls through a FIFO flush
// queue, and hosts the realtime conversation engine (see session.go).
package client

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/voxlingua/voxlingua/client/internal/api"
	"github.com/voxlingua/voxlingua/client/internal/flushq"
)

// DefaultRealtimeBaseURL is where SDP offers go unless overridden.
const DefaultRealtimeBaseURL = "https://api.openai.com"

type Client struct {
	baseURL      string
	realtimeBase string
	http         *http.Client
	// negotiateHTTP carries no broker token; the SDP exchange authenticates
	// with the ephemeral client secret instead.
	negotiateHTTP *http.Client
	exec          *flushq.Executor
	token         string

	closedOnce uint32
}

// New constructs a Client for the broker at baseURL, authenticating with the
// given identity token. Additional options can be provided via functional
// arguments.
func New(baseURL, token string, opts ...Option) *Client {
	if baseURL == "" {
		panic("baseURL cannot be empty")
	}
	if token == "" {
		panic("token cannot be empty")
	}

	c := &Client{
		baseURL:       baseURL,
		realtimeBase:  DefaultRealtimeBaseURL,
		token:         token,
		http:          &http.Client{Timeout: 30 * time.Second},
		negotiateHTTP: &http.Client{Timeout: 30 * time.Second},
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			panic(err)
		}
	}
	if c.exec == nil {
		c.exec = flushq.New(flushq.Config{QueueSize: 256})
	}

	c.wrapTransportWithToken()

	return c
}

// wrapTransportWithToken wraps the broker HTTP transport so every request
// carries the Authorization header.
func (c *Client) wrapTransportWithToken() {
	base := c.http.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c.http.Transport = &tokenTransport{base: base, token: c.token}
}

// tokenTransport adds the bearer identity token to outgoing requests.
type tokenTransport struct {
	base  http.RoundTripper
	token string
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	cloned := req.Clone(req.Context())
	cloned.Header.Set("Authorization", "Bearer "+t.token)
	return t.base.RoundTrip(cloned)
}

// Close stops the flush queue after draining it. Safe to call multiple times.
func (c *Client) Close() error {
	if !atomic.CompareAndSwapUint32(&c.closedOnce, 0, 1) {
		return nil
	}
	if c.exec != nil {
		c.exec.Stop()
	}
	return nil
}

// RequestSession asks the broker for an ephemeral realtime credential for
// the given situation.
func (c *Client) RequestSession(ctx context.Context, situationID, promptOverride string) (*SessionInfo, error) {
	return api.RequestSession(ctx, c.http, c.baseURL, situationID, promptOverride)
}

// PingUsage reports observed connected seconds synchronously. The pump is
// the usual caller; it treats errors as observations, not failures.
func (c *Client) PingUsage(ctx context.Context, seconds int) (*UsageSnapshot, error) {
	return api.PingUsage(ctx, c.http, c.baseURL, seconds)
}

// GetUsage reads today's counter.
func (c *Client) GetUsage(ctx context.Context) (*UsageSnapshot, error) {
	return api.GetUsage(ctx, c.http, c.baseURL)
}

// AppendLog submits an event batch through the flush queue. It returns once
// the batch is queued; delivery errors are retried by the queue and then
// dropped. An empty batch is a no-op and never sent.
func (c *Client) AppendLog(ctx context.Context, batch EventBatch) error {
	if len(batch.Events) == 0 {
		return nil
	}
	return c.exec.Submit(ctx, flushq.JobFunc(func(jobCtx context.Context) error {
		return api.AppendLog(jobCtx, c.http, c.baseURL, batch)
	}))
}

// AwaitLogFlush blocks until every previously queued batch has been
// attempted.
func (c *Client) AwaitLogFlush(ctx context.Context) error {
	return c.exec.Barrier(ctx)
}

// ListSituations returns the situation catalogue.
func (c *Client) ListSituations(ctx context.Context) ([]Situation, error) {
	return api.ListSituations(ctx, c.http, c.baseURL)
}

// GetSituation retrieves one situation by id.
func (c *Client) GetSituation(ctx context.Context, id string) (*Situation, error) {
	return api.GetSituation(ctx, c.http, c.baseURL, id)
}

// UpdateSituation applies a partial update to a situation.
func (c *Client) UpdateSituation(ctx context.Context, id string, req UpdateSituationRequest) (*Situation, error) {
	return api.UpdateSituation(ctx, c.http, c.baseURL, id, req)
}
