package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/psgtech-fest/fest-api/internal/identity"
	"github.com/psgtech-fest/fest-api/internal/models"
	appErrors "github.com/psgtech-fest/fest-api/pkg/errors"
)

// TokenVerifier checks an auth provider ID token.
type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (*models.ProviderIdentity, error)
}

// AuthConfig defines configuration for session tokens.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
}

// AuthService signs users in with a provider ID token and issues session tokens.
type AuthService struct {
	verifier  TokenVerifier
	users     ProfileStore
	parser    *identity.Parser
	roles     *identity.RoleConfig
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(verifier TokenVerifier, users ProfileStore, parser *identity.Parser, roles *identity.RoleConfig, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 12 * time.Hour
	}
	return &AuthService{
		verifier:  verifier,
		users:     users,
		parser:    parser,
		roles:     roles,
		validator: validate,
		logger:    logger,
		config:    config,
	}
}

// SignIn verifies the ID token, parses or loads the student profile, resolves the
// role and returns a session token carrying role and assigned events.
func (s *AuthService) SignIn(ctx context.Context, req models.SignInRequest) (*models.SignInResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid sign-in payload")
	}

	account, err := s.verifier.Verify(ctx, req.IDToken)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid id token")
	}

	if !s.parser.InDomain(account.Email) {
		s.logger.Info("sign-in rejected", zap.String("email", account.Email), zap.String("reason", "domain"))
		return nil, appErrors.Clone(appErrors.ErrInvalidDomain, fmt.Sprintf("sign in with your %s account", s.parser.Domain()))
	}

	profile, err := s.loadOrCreateProfile(ctx, account, s.roles.Privileged(account.Email))
	if err != nil {
		return nil, err
	}

	actor := models.Actor{
		UserID:         account.UID,
		Email:          account.Email,
		Role:           s.roles.Resolve(account.Email),
		AssignedEvents: s.roles.AssignedEvents(account.Email),
	}
	name := account.DisplayName
	if profile != nil {
		name = profile.Name
	}

	token, err := s.generateAccessToken(actor, name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	return &models.SignInResponse{
		AccessToken:    token,
		ExpiresIn:      int64(s.config.AccessTokenExpiry.Seconds()),
		Role:           actor.Role,
		AssignedEvents: actor.AssignedEvents,
		Profile:        profile,
		ProfileReady:   profile.Complete(),
	}, nil
}

// loadOrCreateProfile returns the stored profile, refreshing its photo, or parses
// and stores a new one. Coordinators whose address is not a roll number get nil.
func (s *AuthService) loadOrCreateProfile(ctx context.Context, account *models.ProviderIdentity, privileged bool) (*models.StudentProfile, error) {
	profile, err := s.users.FindByID(ctx, account.UID)
	if err == nil {
		photo := optionalString(account.PhotoURL)
		if !sameString(profile.PhotoURL, photo) {
			if err := s.users.UpdatePhoto(ctx, account.UID, photo); err != nil {
				s.logger.Warn("failed to refresh profile photo", zap.String("user_id", account.UID), zap.Error(err))
			} else {
				profile.PhotoURL = photo
			}
		}
		return profile, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}

	parsed, err := s.parser.ParseProfile(account.Email, account.DisplayName)
	if err != nil {
		if privileged {
			return nil, nil
		}
		return nil, err
	}
	parsed.UserID = account.UID
	parsed.PhotoURL = optionalString(account.PhotoURL)

	created, err := s.users.Create(ctx, parsed)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save profile")
	}
	if !created {
		// A concurrent sign-in stored it first.
		existing, err := s.users.FindByID(ctx, account.UID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
		}
		return existing, nil
	}
	s.logger.Info("profile created", zap.String("user_id", parsed.UserID), zap.String("roll_number", parsed.RollNumber))
	return parsed, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || !claims.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

func (s *AuthService) generateAccessToken(actor models.Actor, name string) (string, error) {
	issuedAt := time.Now().UTC()
	claims := &models.JWTClaims{
		UserID:         actor.UserID,
		Email:          actor.Email,
		Name:           name,
		Role:           actor.Role,
		AssignedEvents: actor.AssignedEvents,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   actor.UserID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.AccessTokenSecret))
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
