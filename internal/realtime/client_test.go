package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxlingua/voxlingua/internal/model"
)

func TestCreateSession(t *testing.T) {
	var gotAuth string
	var gotPayload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/realtime/sessions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":            "sess_123",
			"client_secret": map[string]string{"value": "eph_secret"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "sk-test")
	sess, err := c.CreateSession(context.Background(), SessionRequest{
		Model:           "model-x",
		Voice:           "alloy",
		Instructions:    "Teach French.",
		TranscribeModel: "transcribe-y",
	})
	require.NoError(t, err)
	assert.Equal(t, "sess_123", sess.ID)
	assert.Equal(t, "eph_secret", sess.ClientSecret)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "server_vad", gotPayload["turn_detection"].(map[string]interface{})["type"])
	assert.Equal(t, "transcribe-y", gotPayload["input_audio_transcription"].(map[string]interface{})["model"])
}

func TestCreateSessionUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"model overloaded"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "sk-test")
	_, err := c.CreateSession(context.Background(), SessionRequest{Model: "m"})
	require.ErrorIs(t, err, model.ErrUpstream)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestCreateSessionMissingKey(t *testing.T) {
	c := New("http://localhost:0", "")
	_, err := c.CreateSession(context.Background(), SessionRequest{Model: "m"})
	require.ErrorIs(t, err, model.ErrNotConfigured)
}

func TestExchangeOffer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/realtime", r.URL.Path)
		require.Equal(t, "model-x", r.URL.Query().Get("model"))
		require.Equal(t, "Bearer eph_secret", r.Header.Get("Authorization"))
		require.Equal(t, "application/sdp", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte("v=0 answer"))
	}))
	defer srv.Close()

	c := New(srv.URL, "sk-test")
	answer, err := c.ExchangeOffer(context.Background(), "eph_secret", "model-x", "v=0 offer")
	require.NoError(t, err)
	assert.Equal(t, "v=0 answer", answer)
}

func TestExchangeOfferRejectedSecret(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("invalid ephemeral key"))
	}))
	defer srv.Close()

	c := New(srv.URL, "sk-test")
	_, err := c.ExchangeOffer(context.Background(), "stale", "model-x", "v=0 offer")
	require.ErrorIs(t, err, model.ErrUpstream)
}
