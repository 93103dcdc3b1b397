package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/psgtech-fest/fest-api/internal/models"
	appErrors "github.com/psgtech-fest/fest-api/pkg/errors"
)

// RegistrationService runs the student registration workflow.
type RegistrationService struct {
	registrations RegistrationStore
	users         ProfileStore
	events        eventCatalog
	notifier      registrationNotifier
	cache         *CacheService
	metrics       *MetricsService
	logger        *zap.Logger
}

// NewRegistrationService constructs a RegistrationService. notifier, cache and metrics may be nil.
func NewRegistrationService(registrations RegistrationStore, users ProfileStore, events eventCatalog, notifier registrationNotifier, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{
		registrations: registrations,
		users:         users,
		events:        events,
		notifier:      notifier,
		cache:         cache,
		metrics:       metrics,
		logger:        logger,
	}
}

// RegisterForEvent loads the caller's profile and the event, then registers.
func (s *RegistrationService) RegisterForEvent(ctx context.Context, userID string, eventID int) (*models.RegistrationOutcome, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}

	profile, err := s.users.FindByID(ctx, userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}

	return s.Register(ctx, userID, *event, profile)
}

// Register creates the registration of userID for event unless one exists. Business
// conditions come back as the outcome status; only store failures are errors.
func (s *RegistrationService) Register(ctx context.Context, userID string, event models.Event, profile *models.StudentProfile) (*models.RegistrationOutcome, error) {
	if !profile.HasMobile() {
		return s.outcome(models.RegistrationStatusMissingMobile, nil), nil
	}
	if !profile.Complete() {
		return s.outcome(models.RegistrationStatusProfileIncomplete, nil), nil
	}
	if !event.RegistrationOpen {
		return s.outcome(models.RegistrationStatusClosed, nil), nil
	}

	reg := &models.Registration{
		UserID:     userID,
		EventID:    event.ID,
		EventName:  event.Name,
		UserRoll:   profile.RollNumber,
		UserName:   profile.Name,
		UserEmail:  profile.Email,
		UserMobile: *profile.Mobile,
		Department: profile.Department,
		Year:       *profile.Year,
	}
	created, err := s.registrations.Create(ctx, reg)
	if err != nil {
		s.metrics.RecordRegistration("error")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save registration")
	}
	if !created {
		return s.outcome(models.RegistrationStatusAlreadyRegistered, nil), nil
	}

	s.afterCreate(ctx, *reg, event)
	return s.outcome(models.RegistrationStatusRegistered, reg), nil
}

// MyRegistrations lists the caller's registrations, newest first. Once the caller
// has a profile the lookup is by roll number, which also finds manual adds made
// before their first sign-in.
func (s *RegistrationService) MyRegistrations(ctx context.Context, userID string) ([]models.Registration, error) {
	filter := models.RegistrationFilter{UserID: userID}
	profile, err := s.users.FindByID(ctx, userID)
	switch {
	case err == nil && profile.RollNumber != "":
		filter = models.RegistrationFilter{UserRoll: profile.RollNumber}
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	regs, err := s.registrations.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	return regs, nil
}

// ListEvents returns the catalog.
func (s *RegistrationService) ListEvents(ctx context.Context) ([]models.Event, error) {
	events, err := s.events.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	return events, nil
}

// GetEvent returns one catalog entry.
func (s *RegistrationService) GetEvent(ctx context.Context, id int) (*models.Event, error) {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return event, nil
}

func (s *RegistrationService) afterCreate(ctx context.Context, reg models.Registration, event models.Event) {
	_ = s.cache.Invalidate(ctx, cacheKeyDashboardStats)
	if s.notifier == nil {
		return
	}
	if err := s.notifier.RegistrationConfirmed(reg, event); err != nil {
		s.logger.Warn("confirmation mail not queued",
			zap.String("registration_id", reg.ID),
			zap.Error(err))
	}
}

func (s *RegistrationService) outcome(status models.RegistrationStatus, reg *models.Registration) *models.RegistrationOutcome {
	s.metrics.RecordRegistration(string(status))
	return &models.RegistrationOutcome{Status: status, Registration: reg}
}

// OutcomeError maps a non-successful outcome to the error returned over HTTP.
func OutcomeError(outcome *models.RegistrationOutcome) error {
	if outcome == nil {
		return appErrors.ErrInternal
	}
	switch outcome.Status {
	case models.RegistrationStatusRegistered:
		return nil
	case models.RegistrationStatusAlreadyRegistered:
		return appErrors.ErrAlreadyRegistered
	case models.RegistrationStatusMissingMobile:
		return appErrors.ErrMissingMobile
	case models.RegistrationStatusProfileIncomplete:
		return appErrors.ErrProfileIncomplete
	case models.RegistrationStatusClosed:
		return appErrors.ErrRegistrationClosed
	default:
		return appErrors.ErrInternal
	}
}
