package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psgtech-fest/fest-api/internal/identity"
	"github.com/psgtech-fest/fest-api/internal/models"
	"github.com/psgtech-fest/fest-api/pkg/config"
	appErrors "github.com/psgtech-fest/fest-api/pkg/errors"
)

type stubVerifier struct {
	identity *models.ProviderIdentity
	err      error
}

func (s stubVerifier) Verify(ctx context.Context, idToken string) (*models.ProviderIdentity, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.identity, nil
}

func newAuthFixture(id *models.ProviderIdentity, profiles *memProfiles) *AuthService {
	parser := identity.NewParser("@psgtech.ac.in", func() time.Time {
		return time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	})
	roles := identity.NewRoleConfig(config.RolesConfig{
		AdminEmails:            []string{"head@gmail.com", "fest.head@psgtech.ac.in"},
		EventCoordinatorEmails: []string{"24cs010@psgtech.ac.in"},
		EventAssignments:       map[string][]int{"24cs010@psgtech.ac.in": {4, 2}},
	})
	return NewAuthService(stubVerifier{identity: id}, profiles, parser, roles, nil, nil, AuthConfig{
		AccessTokenSecret: "secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "fest-api",
	})
}

func TestSignInCreatesProfileFromEmail(t *testing.T) {
	profiles := newMemProfiles()
	svc := newAuthFixture(&models.ProviderIdentity{
		UID:         "uid-1",
		Email:       "25mx114@psgtech.ac.in",
		DisplayName: "25MX114 - KAVIN M",
	}, profiles)

	res, err := svc.SignIn(context.Background(), models.SignInRequest{IDToken: "token"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, res.Role)
	require.NotNil(t, res.Profile)
	assert.Equal(t, "25MX114", res.Profile.RollNumber)
	assert.Equal(t, "KAVIN M", res.Profile.Name)
	assert.Equal(t, "MCA", res.Profile.Department)
	assert.Equal(t, 1, *res.Profile.Year)
	assert.False(t, res.ProfileReady)

	stored, err := profiles.FindByID(context.Background(), "uid-1")
	require.NoError(t, err)
	assert.Equal(t, "25MX114", stored.RollNumber)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestSignInKeepsExistingProfile(t *testing.T) {
	existing := completeProfile("uid-1", "25MX114")
	existing.Name = "Edited By Admin"
	profiles := newMemProfiles(existing)
	svc := newAuthFixture(&models.ProviderIdentity{
		UID:         "uid-1",
		Email:       "25mx114@psgtech.ac.in",
		DisplayName: "25MX114 - KAVIN M",
		PhotoURL:    "https://example.com/p.png",
	}, profiles)

	res, err := svc.SignIn(context.Background(), models.SignInRequest{IDToken: "token"})
	require.NoError(t, err)
	assert.Equal(t, "Edited By Admin", res.Profile.Name)
	assert.True(t, res.ProfileReady)
	require.NotNil(t, res.Profile.PhotoURL)
	assert.Equal(t, 1, profiles.photoSet)
}

func TestSignInRejectsForeignDomain(t *testing.T) {
	svc := newAuthFixture(&models.ProviderIdentity{UID: "x", Email: "someone@gmail.com"}, newMemProfiles())
	_, err := svc.SignIn(context.Background(), models.SignInRequest{IDToken: "token"})
	requireCode(t, err, appErrors.ErrInvalidDomain.Code)
}

func TestSignInRejectsMalformedRoll(t *testing.T) {
	svc := newAuthFixture(&models.ProviderIdentity{UID: "x", Email: "principal@psgtech.ac.in"}, newMemProfiles())
	_, err := svc.SignIn(context.Background(), models.SignInRequest{IDToken: "token"})
	requireCode(t, err, appErrors.ErrMalformedRollNumber.Code)
}

func TestSignInRejectsListedAdminOutsideDomain(t *testing.T) {
	profiles := newMemProfiles()
	svc := newAuthFixture(&models.ProviderIdentity{UID: "admin-1", Email: "HEAD@gmail.com"}, profiles)

	_, err := svc.SignIn(context.Background(), models.SignInRequest{IDToken: "token"})
	requireCode(t, err, appErrors.ErrInvalidDomain.Code)

	_, err = profiles.FindByID(context.Background(), "admin-1")
	assert.Error(t, err)
}

func TestSignInAllowsListedAdminWithoutRollNumber(t *testing.T) {
	profiles := newMemProfiles()
	svc := newAuthFixture(&models.ProviderIdentity{UID: "admin-2", Email: "Fest.Head@psgtech.ac.in"}, profiles)

	res, err := svc.SignIn(context.Background(), models.SignInRequest{IDToken: "token"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, res.Role)
	assert.Nil(t, res.Profile)

	_, err = profiles.FindByID(context.Background(), "admin-2")
	assert.Error(t, err)
}

func TestSignInCarriesAssignedEvents(t *testing.T) {
	svc := newAuthFixture(&models.ProviderIdentity{UID: "c-1", Email: "24CS010@psgtech.ac.in"}, newMemProfiles())

	res, err := svc.SignIn(context.Background(), models.SignInRequest{IDToken: "token"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleEventCoordinator, res.Role)
	assert.Equal(t, []int{2, 4}, res.AssignedEvents)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	actor := claims.Actor()
	assert.Equal(t, []int{2, 4}, actor.AssignedEvents)
}

func TestSignInInvalidToken(t *testing.T) {
	svc := newAuthFixture(nil, newMemProfiles())
	svc.verifier = stubVerifier{err: errors.New("expired")}
	_, err := svc.SignIn(context.Background(), models.SignInRequest{IDToken: "token"})
	requireCode(t, err, appErrors.ErrUnauthorized.Code)

	_, err = svc.SignIn(context.Background(), models.SignInRequest{})
	requireCode(t, err, appErrors.ErrValidation.Code)
}

func TestValidateTokenRejectsOtherSecret(t *testing.T) {
	svc := newAuthFixture(&models.ProviderIdentity{UID: "uid-1", Email: "25mx114@psgtech.ac.in"}, newMemProfiles())
	res, err := svc.SignIn(context.Background(), models.SignInRequest{IDToken: "token"})
	require.NoError(t, err)

	svc.config.AccessTokenSecret = "rotated"
	_, err = svc.ValidateToken(res.AccessToken)
	requireCode(t, err, appErrors.ErrUnauthorized.Code)
}
