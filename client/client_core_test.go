package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestSessionCarriesBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"sessionId":        "sess_1",
			"clientSecret":     "secret_1",
			"model":            "m",
			"remainingSeconds": 120,
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "my-token")
	defer func() { _ = c.Close() }()

	info, err := c.RequestSession(context.Background(), "cafe", "")
	require.NoError(t, err)
	assert.Equal(t, "Bearer my-token", gotAuth)
	assert.Equal(t, "sess_1", info.SessionID)
	assert.Equal(t, 120, info.RemainingSeconds)
}

func TestStatusCodeErrorMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusTooManyRequests, ErrQuotaExceeded},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusBadRequest, ErrInvalidInput},
		{http.StatusInternalServerError, ErrUpstream},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", tc.status)
		}))
		c := New(srv.URL, "tok")
		_, err := c.RequestSession(context.Background(), "cafe", "")
		assert.ErrorIs(t, err, tc.want, "status %d", tc.status)
		_ = c.Close()
		srv.Close()
	}
}

func TestPingUsage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]int
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 10, req["seconds"])
		_ = json.NewEncoder(w).Encode(map[string]int{
			"usedSeconds":      40,
			"remainingSeconds": 260,
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	defer func() { _ = c.Close() }()

	snap, err := c.PingUsage(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 40, snap.UsedSeconds)
	assert.Equal(t, 260, snap.RemainingSeconds)
}

func TestAppendLogEmptyBatchIsNoOp(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	defer func() { _ = c.Close() }()

	require.NoError(t, c.AppendLog(context.Background(), EventBatch{SessionID: "s"}))
	require.NoError(t, c.AwaitLogFlush(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, calls)
}

func TestAppendLogDeliversAsync(t *testing.T) {
	received := make(chan EventBatch, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var batch EventBatch
		_ = json.NewDecoder(r.Body).Decode(&batch)
		select {
		case received <- batch:
		default:
		}
		_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	defer func() { _ = c.Close() }()

	err := c.AppendLog(context.Background(), EventBatch{
		SessionID:   "sess_9",
		SituationID: "marche",
		Events:      []interface{}{map[string]interface{}{"type": "session.updated"}},
	})
	require.NoError(t, err)
	require.NoError(t, c.AwaitLogFlush(context.Background()))

	select {
	case batch := <-received:
		assert.Equal(t, "sess_9", batch.SessionID)
		assert.Len(t, batch.Events, 1)
	case <-time.After(time.Second):
		t.Fatal("log batch never delivered")
	}
}

func TestSituationOps(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/situations", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"situations": []Situation{{ID: "cafe", Title: "Au café"}},
		})
	})
	mux.HandleFunc("/situations/cafe", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			var req UpdateSituationRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.NotNil(t, req.Title)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"situation": Situation{ID: "cafe", Title: *req.Title},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"situation": Situation{ID: "cafe", Title: "Au café"},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL, "tok")
	defer func() { _ = c.Close() }()

	sits, err := c.ListSituations(context.Background())
	require.NoError(t, err)
	require.Len(t, sits, 1)
	assert.Equal(t, "cafe", sits[0].ID)

	sit, err := c.GetSituation(context.Background(), "cafe")
	require.NoError(t, err)
	assert.Equal(t, "Au café", sit.Title)

	title := "Au café du coin"
	updated, err := c.UpdateSituation(context.Background(), "cafe", UpdateSituationRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Au café du coin", updated.Title)
}

func TestNewPanicsOnMissingArgs(t *testing.T) {
	assert.Panics(t, func() { New("", "tok") })
	assert.Panics(t, func() { New("http://localhost", "") })
}
