package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/psgtech-fest/fest-api/internal/identity"
	"github.com/psgtech-fest/fest-api/internal/models"
	appErrors "github.com/psgtech-fest/fest-api/pkg/errors"
)

// ProfileService serves the signed-in student's own profile.
type ProfileService struct {
	users     ProfileStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProfileService constructs a ProfileService.
func NewProfileService(users ProfileStore, validate *validator.Validate, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &ProfileService{users: users, validator: validate, logger: logger}
}

// Me returns the caller's profile.
func (s *ProfileService) Me(ctx context.Context, userID string) (*models.StudentProfile, error) {
	profile, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	return profile, nil
}

// UpdateProfile stores the caller's mobile number and, optionally, a corrected name.
// Existing registrations keep the details they were created with.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.StudentProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}
	mobile := strings.TrimSpace(req.Mobile)
	if err := identity.ValidateMobile(mobile); err != nil {
		return nil, err
	}

	patch := models.ProfilePatch{Mobile: &mobile}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name != "" {
			patch.Name = &name
		}
	}

	if err := s.users.UpdateProfile(ctx, userID, patch); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}
	return s.Me(ctx, userID)
}
