package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// SignInRequest exchanges an auth provider ID token for a session.
type SignInRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

// ProviderIdentity is what the auth provider asserts about a verified account.
type ProviderIdentity struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
}

// SignInResponse returns the session token and the resolved account.
type SignInResponse struct {
	AccessToken    string          `json:"access_token"`
	ExpiresIn      int64           `json:"expires_in"`
	Role           Role            `json:"role"`
	AssignedEvents []int           `json:"assigned_events,omitempty"`
	Profile        *StudentProfile `json:"profile,omitempty"`
	ProfileReady   bool            `json:"profile_complete"`
}

// Actor is the caller of an operation as resolved at sign-in.
type Actor struct {
	UserID         string `json:"user_id"`
	Email          string `json:"email"`
	Role           Role   `json:"role"`
	AssignedEvents []int  `json:"assigned_events,omitempty"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID         string `json:"user_id"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	Role           Role   `json:"role"`
	AssignedEvents []int  `json:"assigned_events,omitempty"`
	jwt.RegisteredClaims
}

// Actor converts the claims into the acting identity.
func (c *JWTClaims) Actor() Actor {
	if c == nil {
		return Actor{}
	}
	return Actor{UserID: c.UserID, Email: c.Email, Role: c.Role, AssignedEvents: c.AssignedEvents}
}
