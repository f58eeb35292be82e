package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/voxlingua/voxlingua/internal/model"
)

// Verifier resolves a presented bearer token to a verified identity.
// Magic-link issuance and token refresh are the identity provider's concern;
// the service only ever verifies what the client presents.
type Verifier interface {
	Verify(ctx context.Context, token string) (*model.Identity, error)
}

// HTTPVerifier validates tokens against the identity provider's user
// endpoint. A rejected or expired token maps to model.ErrUnauthorized.
type HTTPVerifier struct {
	client  *resty.Client
	anonKey string
}

// NewHTTPVerifier builds a verifier for the provider at baseURL.
// anonKey is the provider's public API key, sent alongside the user token.
func NewHTTPVerifier(baseURL, anonKey string) *HTTPVerifier {
	return &HTTPVerifier{
		client:  resty.New().SetBaseURL(baseURL),
		anonKey: anonKey,
	}
}

type providerUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (v *HTTPVerifier) Verify(ctx context.Context, token string) (*model.Identity, error) {
	if token == "" {
		return nil, model.ErrUnauthorized
	}

	var user providerUser
	resp, err := v.client.R().
		SetContext(ctx).
		SetHeader("apikey", v.anonKey).
		SetAuthToken(token).
		SetResult(&user).
		Get("/auth/v1/user")
	if err != nil {
		return nil, fmt.Errorf("identity provider unreachable: %w", err)
	}

	switch {
	case resp.StatusCode() == http.StatusOK:
		if user.ID == "" {
			return nil, fmt.Errorf("%w: provider returned no user id", model.ErrUnauthorized)
		}
		return &model.Identity{ID: user.ID, Email: user.Email}, nil
	case resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden:
		return nil, model.ErrUnauthorized
	default:
		return nil, fmt.Errorf("identity provider returned %d: %s", resp.StatusCode(), resp.String())
	}
}
