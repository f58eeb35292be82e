package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxlingua/voxlingua/internal/auth"
	"github.com/voxlingua/voxlingua/internal/conversationlog"
	"github.com/voxlingua/voxlingua/internal/model"
	"github.com/voxlingua/voxlingua/internal/realtime"
	"github.com/voxlingua/voxlingua/internal/services"
	"github.com/voxlingua/voxlingua/internal/store"
	"github.com/voxlingua/voxlingua/internal/store/sqlite"
)

type fakeIssuer struct {
	calls int
	err   error
}

func (f *fakeIssuer) CreateSession(ctx context.Context, req realtime.SessionRequest) (*realtime.Session, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &realtime.Session{ID: "sess_test_1", ClientSecret: "eph_secret"}, nil
}

type fixture struct {
	router *mux.Router
	store  store.Store
	issuer *fakeIssuer
	logDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := sqlite.New(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)

	log := zerolog.Nop()
	verifier := auth.NewStaticVerifier()
	usageSvc := services.NewUsageService(st, 300)
	issuer := &fakeIssuer{}
	sessionSvc := services.NewSessionService(verifier, usageSvc, st, issuer, services.SessionConfig{
		Model:           "test-model",
		Voice:           "alloy",
		TranscribeModel: "test-transcribe",
	}, log)

	logDir := t.TempDir()
	sink := conversationlog.New(logDir, log)

	r := mux.NewRouter()
	session := NewSessionHandler(sessionSvc)
	r.HandleFunc("/session", session.CreateSession).Methods("POST")
	usage := NewUsageHandler(verifier, usageSvc, log)
	r.HandleFunc("/usage/ping", usage.Ping).Methods("POST")
	r.HandleFunc("/usage", usage.Get).Methods("GET")
	lh := NewLogHandler(sink)
	r.HandleFunc("/log", lh.AppendEvents).Methods("POST")
	sit := NewSituationHandler(services.NewSituationService(st), verifier)
	r.HandleFunc("/situations", sit.List).Methods("GET")
	r.HandleFunc("/situations/{id}", sit.Get).Methods("GET")
	r.HandleFunc("/situations/{id}", sit.Update).Methods("PUT")
	health := NewHealthHandler(st)
	r.HandleFunc("/health", health.Check).Methods("GET")
	r.HandleFunc("/health/db", health.CheckStorage).Methods("GET")

	return &fixture{router: r, store: st, issuer: issuer, logDir: logDir}
}

func (f *fixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func firstSituationID(t *testing.T, f *fixture) string {
	t.Helper()
	sits, err := f.store.Situations().List(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, sits)
	return sits[0].ID
}

func TestCreateSessionSuccess(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, "POST", "/session", auth.LocalDevToken, map[string]string{
		"situationId": firstSituationID(t, f),
	})
	require.Equal(t, http.StatusOK, w.Code)

	var desc model.SessionDescriptor
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &desc))
	assert.Equal(t, "sess_test_1", desc.SessionID)
	assert.Equal(t, "eph_secret", desc.ClientSecret)
	assert.Equal(t, 300, desc.RemainingSeconds)
	assert.Equal(t, 1, f.issuer.calls)
}

func TestCreateSessionRequiresToken(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, "POST", "/session", "", map[string]string{"situationId": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, f.issuer.calls)
}

func TestCreateSessionBadToken(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, "POST", "/session", "wrong-token", map[string]string{
		"situationId": firstSituationID(t, f),
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, f.issuer.calls)
}

func TestCreateSessionUnknownSituation(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, "POST", "/session", auth.LocalDevToken, map[string]string{
		"situationId": "no-such-situation",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 0, f.issuer.calls)
}

func TestCreateSessionQuotaExhausted(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "POST", "/usage/ping", auth.LocalDevToken, map[string]int{"seconds": 300})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, "POST", "/session", auth.LocalDevToken, map[string]string{
		"situationId": firstSituationID(t, f),
	})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, 0, f.issuer.calls)
}

func TestUsagePingAccumulatesAndCaps(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "POST", "/usage/ping", auth.LocalDevToken, map[string]int{"seconds": 10})
	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		UsedSeconds      int `json:"usedSeconds"`
		RemainingSeconds int `json:"remainingSeconds"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, 10, out.UsedSeconds)
	assert.Equal(t, 290, out.RemainingSeconds)

	w = f.do(t, "POST", "/usage/ping", auth.LocalDevToken, map[string]int{"seconds": 500})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, 300, out.UsedSeconds)
	assert.Equal(t, 0, out.RemainingSeconds)
}

func TestUsagePingRejectsNonPositiveSeconds(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, "POST", "/usage/ping", auth.LocalDevToken, map[string]int{"seconds": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = f.do(t, "POST", "/usage/ping", auth.LocalDevToken, map[string]int{"seconds": -5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUsagePingRequiresToken(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, "POST", "/usage/ping", "", map[string]int{"seconds": 10})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetUsage(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, "POST", "/usage/ping", auth.LocalDevToken, map[string]int{"seconds": 42})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, "GET", "/usage", auth.LocalDevToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		UsageDate        string `json:"usageDate"`
		UsedSeconds      int    `json:"usedSeconds"`
		RemainingSeconds int    `json:"remainingSeconds"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, 42, out.UsedSeconds)
	assert.Equal(t, 258, out.RemainingSeconds)
	assert.Equal(t, time.Now().Format("2006-01-02"), out.UsageDate)
}

func TestAppendLog(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, "POST", "/log", "", model.EventBatch{
		SessionID:   "sess_1",
		SituationID: "cafe",
		Events:      []interface{}{map[string]interface{}{"type": "response.text.done", "text": "Bonjour"}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	name := filepath.Join(f.logDir, time.Now().UTC().Format("2006-01-02")+".jsonl")
	data, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Contains(t, string(data), "sess_1")
}

func TestAppendLogRejectsMissingSession(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, "POST", "/log", "", map[string]interface{}{
		"situationId": "cafe",
		"events":      []interface{}{map[string]string{"type": "x"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAppendLogRejectsNonArrayEvents(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest("POST", "/log", bytes.NewBufferString(`{"sessionId":"s","events":"nope"}`))
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSituationsListAndGet(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "GET", "/situations", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Situations []model.Situation `json:"situations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.NotEmpty(t, list.Situations)

	w = f.do(t, "GET", "/situations/"+list.Situations[0].ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, "GET", "/situations/absent", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSituationUpdate(t *testing.T) {
	f := newFixture(t)
	id := firstSituationID(t, f)

	title := "Nouvelle situation"
	w := f.do(t, "PUT", "/situations/"+id, auth.LocalDevToken, model.UpdateSituationRequest{Title: &title})
	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		Situation model.Situation `json:"situation"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "Nouvelle situation", out.Situation.Title)

	// mutation requires a valid bearer token
	w = f.do(t, "PUT", "/situations/"+id, "nope", model.UpdateSituationRequest{Title: &title})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, "GET", "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	w = f.do(t, "GET", "/health/db", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
