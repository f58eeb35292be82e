package auth

import (
	"context"

	"github.com/voxlingua/voxlingua/internal/model"
)

// LocalDevToken is the hardcoded bearer token for local development only.
const LocalDevToken = "vox_local_dev_token"

// StaticVerifier resolves fixed tokens to fixed identities. It backs
// AUTH_MODE=static for local development and is the verifier tests inject.
type StaticVerifier struct {
	tokens map[string]model.Identity
}

// NewStaticVerifier creates a verifier that only recognizes LocalDevToken.
func NewStaticVerifier() *StaticVerifier {
	return &StaticVerifier{tokens: map[string]model.Identity{
		LocalDevToken: {ID: "vox-dev", Email: "dev@voxlingua.local"},
	}}
}

// NewStaticVerifierWithTokens creates a verifier over an explicit token table.
func NewStaticVerifierWithTokens(tokens map[string]model.Identity) *StaticVerifier {
	return &StaticVerifier{tokens: tokens}
}

func (s *StaticVerifier) Verify(ctx context.Context, token string) (*model.Identity, error) {
	id, ok := s.tokens[token]
	if !ok {
		return nil, model.ErrUnauthorized
	}
	out := id
	return &out, nil
}
