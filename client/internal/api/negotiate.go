package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/voxlingua/voxlingua/client/internal/types"
)

// ExchangeOffer submits a local SDP offer to the realtime service and
// returns the remote answer SDP. It authenticates with the ephemeral
// clientSecret, so callers must pass an unwrapped HTTP client: the broker
// token must not leak to the realtime endpoint.
func ExchangeOffer(ctx context.Context, httpClient *http.Client, realtimeBaseURL, clientSecret, model, offerSDP string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	url := fmt.Sprintf("%s/v1/realtime?model=%s", realtimeBaseURL, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(offerSDP))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+clientSecret)
	httpReq.Header.Set("Content-Type", "application/sdp")
	httpReq.Header.Set("OpenAI-Beta", "realtime=v1")

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("exchange offer: status %d: %s: %w",
			resp.StatusCode, strings.TrimSpace(string(body)), types.ErrUpstream)
	}
	return string(body), nil
}
