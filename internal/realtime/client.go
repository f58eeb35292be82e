// Package realtime is the HTTP client for the external streaming speech
// service. It issues ephemeral session credentials and performs the one-shot
// SDP offer/answer exchange; the media protocol itself is the service's
// concern.
package realtime

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/voxlingua/voxlingua/internal/model"
)

// SessionRequest describes the conversational session to issue.
type SessionRequest struct {
	Model           string `json:"model"`
	Voice           string `json:"voice"`
	Instructions    string `json:"instructions"`
	TurnDetection   TurnDetection
	TranscribeModel string
}

// TurnDetection selects how the remote service decides the speaker is done.
type TurnDetection struct {
	Type string `json:"type"`
}

// Session is the ephemeral credential the service hands back. ClientSecret
// is single use: it authorizes exactly one offer/answer exchange and expires
// on the service's schedule.
type Session struct {
	ID           string
	ClientSecret string
}

type sessionPayload struct {
	Model                   string            `json:"model"`
	Voice                   string            `json:"voice"`
	Instructions            string            `json:"instructions"`
	TurnDetection           TurnDetection     `json:"turn_detection"`
	InputAudioTranscription map[string]string `json:"input_audio_transcription"`
}

type sessionResponse struct {
	ID           string `json:"id"`
	ClientSecret struct {
		Value string `json:"value"`
	} `json:"client_secret"`
}

// Client talks to the realtime service's REST surface.
type Client struct {
	http   *resty.Client
	apiKey string
}

// New creates a client for the service at baseURL. apiKey is the server-side
// key used for session issuance; ephemeral client secrets authenticate the
// SDP exchange instead.
func New(baseURL, apiKey string) *Client {
	return &Client{
		http:   resty.New().SetBaseURL(baseURL),
		apiKey: apiKey,
	}
}

// CreateSession asks the service for an ephemeral session credential.
// A non-success response maps to model.ErrUpstream carrying the upstream
// body verbatim for diagnostics; there is no retry.
func (c *Client) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: realtime API key is missing", model.ErrNotConfigured)
	}

	payload := sessionPayload{
		Model:         req.Model,
		Voice:         req.Voice,
		Instructions:  req.Instructions,
		TurnDetection: req.TurnDetection,
		InputAudioTranscription: map[string]string{
			"model": req.TranscribeModel,
		},
	}
	if payload.TurnDetection.Type == "" {
		payload.TurnDetection.Type = "server_vad"
	}

	var out sessionResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		SetResult(&out).
		Post("/v1/realtime/sessions")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUpstream, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: %s", model.ErrUpstream, resp.String())
	}
	if out.ID == "" || out.ClientSecret.Value == "" {
		return nil, fmt.Errorf("%w: session response missing id or client secret", model.ErrUpstream)
	}
	return &Session{ID: out.ID, ClientSecret: out.ClientSecret.Value}, nil
}

// ExchangeOffer submits a local SDP offer authenticated by the ephemeral
// clientSecret and returns the remote answer SDP. The secret is consumed by
// this call; a failed negotiation needs a fresh session, never a resubmit.
func (c *Client) ExchangeOffer(ctx context.Context, clientSecret, mdl, offerSDP string) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(clientSecret).
		SetHeader("Content-Type", "application/sdp").
		SetHeader("OpenAI-Beta", "realtime=v1").
		SetQueryParam("model", mdl).
		SetBody(offerSDP).
		Post("/v1/realtime")
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrUpstream, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: %s", model.ErrUpstream, resp.String())
	}
	return resp.String(), nil
}
