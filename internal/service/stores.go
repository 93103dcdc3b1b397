package service

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/psgtech-fest/fest-api/internal/identity"
	"github.com/psgtech-fest/fest-api/internal/models"
)

// RegistrationStore is implemented by the Postgres and Firestore registration repositories.
type RegistrationStore interface {
	Create(ctx context.Context, reg *models.Registration) (bool, error)
	FindByID(ctx context.Context, userID string, eventID int) (*models.Registration, error)
	List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, error)
	ToggleAttendance(ctx context.Context, userID string, eventID int) (bool, error)
	SetAttendanceBulk(ctx context.Context, eventID int, userIDs []string, attended bool) ([]string, error)
	Delete(ctx context.Context, userID string, eventID int) error
	DeleteByRoll(ctx context.Context, roll string) (int64, error)
	UpdateByRoll(ctx context.Context, roll string, patch models.ProfilePatch) (int64, error)
}

// ProfileStore is implemented by the Postgres and Firestore user repositories.
type ProfileStore interface {
	FindByID(ctx context.Context, userID string) (*models.StudentProfile, error)
	FindByRoll(ctx context.Context, roll string) (*models.StudentProfile, error)
	Create(ctx context.Context, profile *models.StudentProfile) (bool, error)
	UpdatePhoto(ctx context.Context, userID string, photoURL *string) error
	UpdateProfile(ctx context.Context, userID string, patch models.ProfilePatch) error
	UpdateByRoll(ctx context.Context, roll string, patch models.ProfilePatch) (int64, error)
	DeleteByRoll(ctx context.Context, roll string) (int64, error)
}

type eventCatalog interface {
	List(ctx context.Context) ([]models.Event, error)
	FindByID(ctx context.Context, id int) (*models.Event, error)
}

type registrationNotifier interface {
	RegistrationConfirmed(reg models.Registration, event models.Event) error
}

// NewValidator returns a validator with the custom tags used by request payloads.
func NewValidator() *validator.Validate {
	v := validator.New()
	if err := identity.RegisterValidations(v); err != nil {
		panic(err)
	}
	return v
}
