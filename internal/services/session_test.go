package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxlingua/voxlingua/internal/auth"
	"github.com/voxlingua/voxlingua/internal/model"
	"github.com/voxlingua/voxlingua/internal/realtime"
)

// fakeIssuer records issuance calls so admission tests can assert the
// external service was (or was not) contacted.
type fakeIssuer struct {
	calls int
	last  realtime.SessionRequest
	err   error
}

func (f *fakeIssuer) CreateSession(ctx context.Context, req realtime.SessionRequest) (*realtime.Session, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &realtime.Session{ID: "sess_1", ClientSecret: "eph_1"}, nil
}

func newBroker(t *testing.T, issuer SessionIssuer) (*SessionService, *UsageService) {
	t.Helper()
	st := newTestStore(t)
	usage := NewUsageService(st, 300).WithClock(fixedClock("2026-03-01"))
	verifier := auth.NewStaticVerifierWithTokens(map[string]model.Identity{
		"good-token": {ID: "user-a", Email: "a@example.test"},
	})
	cfg := SessionConfig{Model: "model-x", Voice: "alloy", TranscribeModel: "transcribe-y"}
	return NewSessionService(verifier, usage, st, issuer, cfg, zerolog.Nop()), usage
}

func TestRequestSessionHappyPath(t *testing.T) {
	issuer := &fakeIssuer{}
	svc, _ := newBroker(t, issuer)

	desc, err := svc.RequestSession(context.Background(), "good-token", "cafe", "")
	require.NoError(t, err)
	assert.Equal(t, "sess_1", desc.SessionID)
	assert.Equal(t, "eph_1", desc.ClientSecret)
	assert.Equal(t, "model-x", desc.Model)
	assert.Equal(t, 300, desc.RemainingSeconds)
	assert.Equal(t, 1, issuer.calls)
	assert.Contains(t, issuer.last.Instructions, "Situation: Au café")
}

func TestRequestSessionRejectsBadToken(t *testing.T) {
	issuer := &fakeIssuer{}
	svc, _ := newBroker(t, issuer)

	_, err := svc.RequestSession(context.Background(), "bad-token", "cafe", "")
	require.ErrorIs(t, err, model.ErrUnauthorized)
	assert.Zero(t, issuer.calls, "no upstream call on auth failure")
}

func TestRequestSessionQuotaExhausted(t *testing.T) {
	issuer := &fakeIssuer{}
	svc, usage := newBroker(t, issuer)

	_, err := usage.Increment(context.Background(), "user-a", 300)
	require.NoError(t, err)

	_, err = svc.RequestSession(context.Background(), "good-token", "cafe", "")
	require.ErrorIs(t, err, model.ErrQuotaExceeded)
	assert.Zero(t, issuer.calls, "quota check must precede the external call")
}

func TestRequestSessionUnknownSituation(t *testing.T) {
	issuer := &fakeIssuer{}
	svc, _ := newBroker(t, issuer)

	_, err := svc.RequestSession(context.Background(), "good-token", "no-such", "")
	require.ErrorIs(t, err, model.ErrNotFound)
	assert.Zero(t, issuer.calls)
}

func TestRequestSessionDoesNotTouchLedger(t *testing.T) {
	issuer := &fakeIssuer{}
	svc, usage := newBroker(t, issuer)
	ctx := context.Background()

	_, err := svc.RequestSession(ctx, "good-token", "cafe", "")
	require.NoError(t, err)

	u, err := usage.GetUsage(ctx, "user-a")
	require.NoError(t, err)
	assert.Equal(t, 0, u.UsedSeconds, "issuance must not record usage")
}

func TestBuildInstructions(t *testing.T) {
	sit := &model.Situation{Title: "Au café", Theme: "Commander", Prompt: "You are the waiter."}

	base := BuildInstructions(sit, "")
	blocks := strings.Split(base, "\n\n")
	require.Len(t, blocks, 4)
	assert.Contains(t, blocks[0], "French conversation tutor")
	assert.Equal(t, "Situation: Au café", blocks[1])
	assert.Equal(t, "Theme: Commander", blocks[2])
	assert.Equal(t, "Scenario: You are the waiter.", blocks[3])

	// The override is layered on top, not a replacement, and is trimmed.
	withOverride := BuildInstructions(sit, "  speak slowly  ")
	assert.True(t, strings.HasPrefix(withOverride, base))
	assert.True(t, strings.HasSuffix(withOverride, "Custom instructions: speak slowly"))

	// Whitespace-only overrides are ignored.
	assert.Equal(t, base, BuildInstructions(sit, "   "))
}

func TestFixedClockHelper(t *testing.T) {
	// Guard the helper other tests lean on.
	ts := fixedClock("2026-03-01")()
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), ts)
}
