package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/voxlingua/voxlingua/internal/auth"
	"github.com/voxlingua/voxlingua/internal/model"
	"github.com/voxlingua/voxlingua/internal/realtime"
	"github.com/voxlingua/voxlingua/internal/store"
)

// instructionPreamble is the fixed tutoring persona prepended to every
// session's instructions: role, correction policy, pacing policy.
const instructionPreamble = "You are a friendly French conversation tutor for native Portuguese speakers. " +
	"Use simple, clear French. If the learner makes mistakes, correct them gently in Portuguese. " +
	"Ask short questions, keep the pace natural, and encourage the learner to respond aloud. " +
	"Stay inside the situation and keep role-play going."

// SessionIssuer is the slice of the realtime client the broker needs.
type SessionIssuer interface {
	CreateSession(ctx context.Context, req realtime.SessionRequest) (*realtime.Session, error)
}

// SessionConfig carries the model/voice parameters forwarded upstream.
type SessionConfig struct {
	Model           string
	Voice           string
	TranscribeModel string
}

// SessionService is the credential broker: it exchanges an authenticated
// request for an ephemeral media-session credential, gating on the quota
// ledger first so exhausted users never reach the external service.
type SessionService struct {
	verifier auth.Verifier
	usage    *UsageService
	store    store.Store
	issuer   SessionIssuer
	cfg      SessionConfig
	log      zerolog.Logger
}

func NewSessionService(v auth.Verifier, u *UsageService, s store.Store, issuer SessionIssuer, cfg SessionConfig, log zerolog.Logger) *SessionService {
	return &SessionService{verifier: v, usage: u, store: s, issuer: issuer, cfg: cfg, log: log}
}

// RequestSession runs the admission pipeline in fast-reject order:
// token verification, quota check, situation lookup, and only then the
// external issuance call. Issuance does not touch the ledger; billed time is
// observed connected seconds reported later by usage pings.
func (s *SessionService) RequestSession(ctx context.Context, token, situationID, promptOverride string) (*model.SessionDescriptor, error) {
	identity, err := s.verifier.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	usage, err := s.usage.GetUsage(ctx, identity.ID)
	if err != nil {
		return nil, err
	}
	remaining := s.usage.Remaining(usage)
	if remaining <= 0 {
		return nil, fmt.Errorf("%w: %d seconds used today", model.ErrQuotaExceeded, usage.UsedSeconds)
	}

	situation, err := s.store.Situations().Get(ctx, situationID)
	if err != nil {
		return nil, err
	}

	sess, err := s.issuer.CreateSession(ctx, realtime.SessionRequest{
		Model:           s.cfg.Model,
		Voice:           s.cfg.Voice,
		Instructions:    BuildInstructions(situation, promptOverride),
		TurnDetection:   realtime.TurnDetection{Type: "server_vad"},
		TranscribeModel: s.cfg.TranscribeModel,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user_id", identity.ID).
		Str("situation_id", situationID).
		Str("session_id", sess.ID).
		Int("remaining_seconds", remaining).
		Msg("realtime session issued")

	return &model.SessionDescriptor{
		SessionID:        sess.ID,
		ClientSecret:     sess.ClientSecret,
		Model:            s.cfg.Model,
		RemainingSeconds: remaining,
	}, nil
}

// BuildInstructions composes the model instructions: the fixed preamble, the
// situation's title/theme/prompt, and an optional caller override layered on
// top as an additional directive block (never a replacement).
func BuildInstructions(sit *model.Situation, promptOverride string) string {
	blocks := []string{
		instructionPreamble,
		"Situation: " + sit.Title,
		"Theme: " + sit.Theme,
		"Scenario: " + sit.Prompt,
	}
	if override := strings.TrimSpace(promptOverride); override != "" {
		blocks = append(blocks, "Custom instructions: "+override)
	}
	return strings.Join(blocks, "\n\n")
}
