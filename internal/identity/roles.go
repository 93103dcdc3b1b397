package identity

import (
	"sort"
	"strings"

	"github.com/psgtech-fest/fest-api/internal/models"
	"github.com/psgtech-fest/fest-api/pkg/config"
)

// RoleConfig holds the allow-lists. It is built once at start-up and never
// modified afterwards, so it is safe to share between goroutines.
type RoleConfig struct {
	admins              map[string]struct{}
	eventCoordinators   map[string]struct{}
	studentCoordinators map[string]struct{}
	assignments         map[string][]int
}

// NewRoleConfig copies the configured lists into an immutable lookup structure.
func NewRoleConfig(cfg config.RolesConfig) *RoleConfig {
	rc := &RoleConfig{
		admins:              toSet(cfg.AdminEmails),
		eventCoordinators:   toSet(cfg.EventCoordinatorEmails),
		studentCoordinators: toSet(cfg.StudentCoordinatorEmails),
		assignments:         make(map[string][]int, len(cfg.EventAssignments)),
	}
	for email, ids := range cfg.EventAssignments {
		copied := append([]int(nil), ids...)
		sort.Ints(copied)
		rc.assignments[normalizeEmail(email)] = copied
	}
	return rc
}

// Resolve returns the role for email: admin, then event coordinator, then
// student coordinator, else student.
func (rc *RoleConfig) Resolve(email string) models.Role {
	if rc == nil {
		return models.RoleStudent
	}
	key := normalizeEmail(email)
	if _, ok := rc.admins[key]; ok {
		return models.RoleAdmin
	}
	if _, ok := rc.eventCoordinators[key]; ok {
		return models.RoleEventCoordinator
	}
	if _, ok := rc.studentCoordinators[key]; ok {
		return models.RoleStudentCoordinator
	}
	return models.RoleStudent
}

// AssignedEvents returns a copy of the event ids an event coordinator manages.
func (rc *RoleConfig) AssignedEvents(email string) []int {
	if rc == nil {
		return nil
	}
	ids := rc.assignments[normalizeEmail(email)]
	if len(ids) == 0 {
		return nil
	}
	return append([]int(nil), ids...)
}

// Privileged reports whether email appears in any allow-list.
func (rc *RoleConfig) Privileged(email string) bool {
	return rc.Resolve(email) != models.RoleStudent
}

// CanManageEvent is the authorization gate for event-scoped mutations.
func CanManageEvent(role models.Role, eventID int, assignedEvents []int) bool {
	switch role {
	case models.RoleAdmin:
		return true
	case models.RoleEventCoordinator:
		for _, id := range assignedEvents {
			if id == eventID {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func toSet(emails []string) map[string]struct{} {
	set := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		if key := normalizeEmail(email); key != "" {
			set[key] = struct{}{}
		}
	}
	return set
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
