package firebase

import (
	"context"
	"errors"
	"fmt"

	"firebase.google.com/go/v4/auth"

	"github.com/psgtech-fest/fest-api/internal/models"
)

type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// TokenVerifier turns a verified ID token into the identity the provider asserts.
type TokenVerifier struct {
	client idTokenVerifier
}

// NewTokenVerifier wraps an auth client.
func NewTokenVerifier(client idTokenVerifier) *TokenVerifier {
	return &TokenVerifier{client: client}
}

// Verify checks the token signature and expiry and extracts the account fields.
func (v *TokenVerifier) Verify(ctx context.Context, idToken string) (*models.ProviderIdentity, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("verify id token: %w", err)
	}
	email := claimString(token.Claims, "email")
	if email == "" {
		return nil, errors.New("id token carries no email")
	}
	return &models.ProviderIdentity{
		UID:         token.UID,
		Email:       email,
		DisplayName: claimString(token.Claims, "name"),
		PhotoURL:    claimString(token.Claims, "picture"),
	}, nil
}

func claimString(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
