package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/psgtech-fest/fest-api/internal/identity"
	"github.com/psgtech-fest/fest-api/internal/models"
	appErrors "github.com/psgtech-fest/fest-api/pkg/errors"
)

// AdminConfig tunes the admin workflow.
type AdminConfig struct {
	// Location defines local midnight for the "today" counter. Defaults to UTC.
	Location *time.Location
	StatsTTL time.Duration
	Now      func() time.Time
}

// AdminService runs attendance and administration operations. Every mutation is
// authorised against the acting session first.
type AdminService struct {
	registrations RegistrationStore
	users         ProfileStore
	events        eventCatalog
	notifier      registrationNotifier
	cache         *CacheService
	metrics       *MetricsService
	validator     *validator.Validate
	logger        *zap.Logger
	cfg           AdminConfig
}

// NewAdminService constructs an AdminService.
func NewAdminService(registrations RegistrationStore, users ProfileStore, events eventCatalog, notifier registrationNotifier, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg AdminConfig) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &AdminService{
		registrations: registrations,
		users:         users,
		events:        events,
		notifier:      notifier,
		cache:         cache,
		metrics:       metrics,
		validator:     validate,
		logger:        logger,
		cfg:           cfg,
	}
}

// ToggleAttendance flips the attended flag of one registration and returns the new value.
func (s *AdminService) ToggleAttendance(ctx context.Context, actor models.Actor, userID string, eventID int) (bool, error) {
	if err := s.requireEvent(actor, eventID); err != nil {
		return false, err
	}
	attended, err := s.registrations.ToggleAttendance(ctx, userID, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle attendance")
	}
	s.metrics.RecordAttendance("toggle", 1)
	s.invalidateStats(ctx)
	s.logger.Info("attendance toggled",
		zap.String("actor", actor.Email),
		zap.String("user_id", userID),
		zap.Int("event_id", eventID),
		zap.Bool("attended", attended))
	return attended, nil
}

// MarkBulkAttendance sets attended for several registrations of one event. Either
// every listed registration is updated or none is; when some are missing the result
// lists them alongside a BULK_PARTIAL_FAILURE error.
func (s *AdminService) MarkBulkAttendance(ctx context.Context, actor models.Actor, eventID int, req models.BulkAttendanceRequest) (*models.BulkAttendanceResult, error) {
	if err := s.requireEvent(actor, eventID); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	ids := difference(req.UserIDs, nil)
	result := &models.BulkAttendanceResult{Requested: len(ids)}
	missing, err := s.registrations.SetAttendanceBulk(ctx, eventID, ids, req.Attended)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update attendance")
	}
	if len(missing) > 0 {
		result.Missing = missing
		return result, appErrors.Clone(appErrors.ErrBulkPartialFailure,
			fmt.Sprintf("no registration for %s; nothing was updated", strings.Join(missing, ", ")))
	}

	result.Updated = len(ids)
	s.metrics.RecordAttendance("bulk", result.Updated)
	s.invalidateStats(ctx)
	s.logger.Info("bulk attendance applied",
		zap.String("actor", actor.Email),
		zap.Int("event_id", eventID),
		zap.Int("count", result.Updated),
		zap.Bool("attended", req.Attended))
	return result, nil
}

// RemoveRegistration deletes exactly one registration.
func (s *AdminService) RemoveRegistration(ctx context.Context, actor models.Actor, userID string, eventID int) error {
	if err := s.requireEvent(actor, eventID); err != nil {
		return err
	}
	if err := s.registrations.Delete(ctx, userID, eventID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove registration")
	}
	s.invalidateStats(ctx)
	s.logger.Info("registration removed",
		zap.String("actor", actor.Email),
		zap.String("user_id", userID),
		zap.Int("event_id", eventID))
	return nil
}

// AdminAddRegistration registers a student by hand. The registration belongs to the
// stored profile when the roll number is known, otherwise to the roll number itself.
// Closed events accept manual registrations.
func (s *AdminService) AdminAddRegistration(ctx context.Context, actor models.Actor, eventID int, fields models.StudentFields) (*models.RegistrationOutcome, error) {
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins can add registrations")
	}
	fields.RollNumber = strings.ToUpper(strings.TrimSpace(fields.RollNumber))
	if err := s.validator.Struct(fields); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student details")
	}

	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	userID := fields.RollNumber
	profile, err := s.users.FindByRoll(ctx, fields.RollNumber)
	switch {
	case err == nil:
		userID = profile.UserID
	case !errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up student")
	}

	reg := &models.Registration{
		UserID:     userID,
		EventID:    event.ID,
		EventName:  event.Name,
		UserRoll:   fields.RollNumber,
		UserName:   strings.TrimSpace(fields.Name),
		UserEmail:  strings.TrimSpace(fields.Email),
		UserMobile: fields.Mobile,
		Department: strings.TrimSpace(fields.Department),
		Year:       fields.Year,
	}
	created, err := s.registrations.Create(ctx, reg)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save registration")
	}
	if !created {
		s.metrics.RecordRegistration(string(models.RegistrationStatusAlreadyRegistered))
		return &models.RegistrationOutcome{Status: models.RegistrationStatusAlreadyRegistered}, nil
	}

	s.metrics.RecordRegistration(string(models.RegistrationStatusRegistered))
	s.invalidateStats(ctx)
	if s.notifier != nil {
		if err := s.notifier.RegistrationConfirmed(*reg, *event); err != nil {
			s.logger.Warn("confirmation mail not queued", zap.String("registration_id", reg.ID), zap.Error(err))
		}
	}
	s.logger.Info("registration added by admin",
		zap.String("actor", actor.Email),
		zap.String("roll_number", reg.UserRoll),
		zap.Int("event_id", eventID))
	return &models.RegistrationOutcome{Status: models.RegistrationStatusRegistered, Registration: reg}, nil
}

// DeleteUserByRoll removes every registration of the roll number and its profile.
func (s *AdminService) DeleteUserByRoll(ctx context.Context, actor models.Actor, roll string) (*models.UserDeletionResult, error) {
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins can delete users")
	}
	roll = strings.ToUpper(strings.TrimSpace(roll))
	if roll == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "roll number is required")
	}

	regs, err := s.registrations.DeleteByRoll(ctx, roll)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete registrations")
	}
	profiles, err := s.users.DeleteByRoll(ctx, roll)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete profile")
	}
	if regs == 0 && profiles == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no user with that roll number")
	}

	s.invalidateStats(ctx)
	s.logger.Info("user deleted",
		zap.String("actor", actor.Email),
		zap.String("roll_number", roll),
		zap.Int64("registrations", regs))
	return &models.UserDeletionResult{RollNumber: roll, RegistrationsDeleted: regs, ProfileDeleted: profiles > 0}, nil
}

// UpdateUserDetails patches a student's profile and copies the change into every
// registration of that roll number.
func (s *AdminService) UpdateUserDetails(ctx context.Context, actor models.Actor, roll string, patch models.ProfilePatch) (*models.UserUpdateResult, error) {
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins can edit users")
	}
	roll = strings.ToUpper(strings.TrimSpace(roll))
	if roll == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "roll number is required")
	}
	if patch.Empty() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "nothing to update")
	}
	if err := s.validator.Struct(patch); err != nil {
		if patch.Mobile != nil && !identity.ValidMobile(*patch.Mobile) {
			return nil, appErrors.ErrInvalidMobile
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user details")
	}

	regs, err := s.registrations.UpdateByRoll(ctx, roll, patch)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update registrations")
	}
	profiles, err := s.users.UpdateByRoll(ctx, roll, patch)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}
	if regs == 0 && profiles == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no user with that roll number")
	}

	s.invalidateStats(ctx)
	s.logger.Info("user details updated",
		zap.String("actor", actor.Email),
		zap.String("roll_number", roll),
		zap.Int64("registrations", regs))
	return &models.UserUpdateResult{RollNumber: roll, RegistrationsUpdated: regs, ProfileUpdated: profiles > 0}, nil
}

// Stats aggregates the registration store. Results are cached until the next mutation;
// a result computed while a mutation ran is returned but not cached.
func (s *AdminService) Stats(ctx context.Context, actor models.Actor) (*models.DashboardStats, error) {
	if !actor.Role.IsCoordinator() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "coordinators only")
	}

	var cached models.DashboardStats
	if hit, _ := s.cache.Get(ctx, cacheKeyDashboardStats, &cached); hit {
		return &cached, nil
	}
	gen := s.cache.Generation()

	regs, err := s.registrations.List(ctx, models.RegistrationFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registrations")
	}
	events, err := s.events.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load events")
	}

	stats := ComputeStats(regs, events, s.cfg.Now().In(s.cfg.Location))
	_ = s.cache.SetIfCurrent(ctx, cacheKeyDashboardStats, stats, s.cfg.StatsTTL, gen)
	return stats, nil
}

// ListEventRegistrations lists one event's registrations. Event coordinators only
// see the events assigned to them.
func (s *AdminService) ListEventRegistrations(ctx context.Context, actor models.Actor, eventID int) (*models.Event, []models.Registration, error) {
	if !actor.Role.IsCoordinator() {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "coordinators only")
	}
	if actor.Role == models.RoleEventCoordinator && !identity.CanManageEvent(actor.Role, eventID, actor.AssignedEvents) {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "event is not assigned to you")
	}
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	regs, err := s.registrations.List(ctx, models.RegistrationFilter{EventID: &eventID})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	return event, regs, nil
}

// ListParticipants returns one row per registered student, ordered by roll number.
func (s *AdminService) ListParticipants(ctx context.Context, actor models.Actor) ([]models.Participant, error) {
	if !actor.Role.IsCoordinator() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "coordinators only")
	}
	regs, err := s.registrations.List(ctx, models.RegistrationFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	return Participants(regs), nil
}

func (s *AdminService) requireEvent(actor models.Actor, eventID int) error {
	if !identity.CanManageEvent(actor.Role, eventID, actor.AssignedEvents) {
		s.logger.Warn("event action denied",
			zap.String("actor", actor.Email),
			zap.String("role", string(actor.Role)),
			zap.Int("event_id", eventID))
		return appErrors.Clone(appErrors.ErrForbidden, "you cannot manage this event")
	}
	return nil
}

func (s *AdminService) loadEvent(ctx context.Context, eventID int) (*models.Event, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return event, nil
}

func (s *AdminService) invalidateStats(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, cacheKeyDashboardStats)
}

// ComputeStats aggregates registrations. now must already be in the local zone; its
// midnight starts the "today" window.
func ComputeStats(regs []models.Registration, events []models.Event, now time.Time) *models.DashboardStats {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	stats := &models.DashboardStats{
		TotalRegistrations: len(regs),
		PerDepartment:      make(map[string]int),
		GeneratedAt:        now.UTC(),
	}

	perEvent := make(map[int]*models.EventStats, len(events))
	order := make([]int, 0, len(events))
	for _, event := range events {
		perEvent[event.ID] = &models.EventStats{EventID: event.ID, EventName: event.Name}
		order = append(order, event.ID)
	}

	users := make(map[string]struct{})
	for _, reg := range regs {
		es, ok := perEvent[reg.EventID]
		if !ok {
			es = &models.EventStats{EventID: reg.EventID, EventName: reg.EventName}
			perEvent[reg.EventID] = es
			order = append(order, reg.EventID)
		}
		es.Registered++
		if reg.Attended {
			es.Attended++
			stats.TotalAttended++
		}
		dept := reg.Department
		if dept == "" {
			dept = "Unknown"
		}
		stats.PerDepartment[dept]++
		users[studentKey(reg)] = struct{}{}
		if !reg.RegisteredAt.Before(midnight) {
			stats.TodayRegistrations++
		}
	}
	stats.UniqueParticipants = len(users)

	stats.PerEvent = make([]models.EventStats, 0, len(order))
	for _, id := range order {
		stats.PerEvent = append(stats.PerEvent, *perEvent[id])
	}
	return stats
}

// Participants folds registrations into one row per student, keyed by roll number.
// Details come from the newest registration of each student.
func Participants(regs []models.Registration) []models.Participant {
	sorted := make([]models.Registration, len(regs))
	copy(sorted, regs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RegisteredAt.After(sorted[j].RegisteredAt)
	})

	byUser := make(map[string]*models.Participant)
	for _, reg := range sorted {
		key := studentKey(reg)
		p, ok := byUser[key]
		if !ok {
			p = &models.Participant{
				UserID:     reg.UserID,
				RollNumber: reg.UserRoll,
				Name:       reg.UserName,
				Department: reg.Department,
				Year:       reg.Year,
				Mobile:     reg.UserMobile,
			}
			byUser[key] = p
		}
		p.EventsRegistered++
	}

	out := make([]models.Participant, 0, len(byUser))
	for _, p := range byUser {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RollNumber != out[j].RollNumber {
			return out[i].RollNumber < out[j].RollNumber
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

// studentKey identifies the student behind a registration. A manual add made
// before the student's first sign-in carries the roll number as its user id, so
// the roll is the stable key.
func studentKey(reg models.Registration) string {
	if reg.UserRoll != "" {
		return reg.UserRoll
	}
	return reg.UserID
}

// difference returns the ids in want that are absent from have, in order and without duplicates.
func difference(want, have []string) []string {
	present := make(map[string]struct{}, len(have))
	for _, id := range have {
		present[id] = struct{}{}
	}
	var out []string
	seen := make(map[string]struct{}, len(want))
	for _, id := range want {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := present[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
