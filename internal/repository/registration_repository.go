package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/psgtech-fest/fest-api/internal/models"
)

const registrationColumns = `id, user_id, event_id, event_name, user_roll, user_name, user_email, user_mobile, department, year, registered_at, attended`

// RegistrationRepository persists registrations in PostgreSQL. The primary key is
// the composite "<userId>_<eventId>" id. (user_id, event_id) and (user_roll, event_id)
// are both unique, so a roll-keyed manual add and a later self-registration collide.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs the repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Create inserts the registration unless one already exists for the user or the
// roll number in that event. It reports whether a row was written; the check and
// the write are a single statement.
func (r *RegistrationRepository) Create(ctx context.Context, reg *models.Registration) (bool, error) {
	reg.ID = models.RegistrationID(reg.UserID, reg.EventID)
	reg.Attended = false
	const query = `INSERT INTO registrations (id, user_id, event_id, event_name, user_roll, user_name, user_email, user_mobile, department, year, registered_at, attended)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), FALSE)
        ON CONFLICT DO NOTHING
        RETURNING registered_at`
	err := r.db.QueryRowxContext(ctx, query,
		reg.ID, reg.UserID, reg.EventID, reg.EventName, reg.UserRoll, reg.UserName,
		reg.UserEmail, reg.UserMobile, reg.Department, reg.Year,
	).Scan(&reg.RegisteredAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("create registration: %w", err)
	}
	return true, nil
}

// FindByID returns the registration of a user for an event.
func (r *RegistrationRepository) FindByID(ctx context.Context, userID string, eventID int) (*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1`
	var reg models.Registration
	if err := r.db.GetContext(ctx, &reg, query, models.RegistrationID(userID, eventID)); err != nil {
		return nil, err
	}
	return &reg, nil
}

// List returns registrations matching the filter, newest first.
func (r *RegistrationRepository) List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, error) {
	var conditions []string
	var args []interface{}

	if filter.EventID != nil {
		conditions = append(conditions, fmt.Sprintf("event_id = $%d", len(args)+1))
		args = append(args, *filter.EventID)
	}
	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.UserRoll != "" {
		conditions = append(conditions, fmt.Sprintf("user_roll = $%d", len(args)+1))
		args = append(args, filter.UserRoll)
	}

	query := `SELECT ` + registrationColumns + ` FROM registrations`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY registered_at DESC"

	var regs []models.Registration
	if err := r.db.SelectContext(ctx, &regs, query, args...); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return regs, nil
}

// ToggleAttendance flips the attended flag atomically and returns the new value.
func (r *RegistrationRepository) ToggleAttendance(ctx context.Context, userID string, eventID int) (bool, error) {
	const query = `UPDATE registrations SET attended = NOT attended WHERE id = $1 RETURNING attended`
	var attended bool
	if err := r.db.QueryRowxContext(ctx, query, models.RegistrationID(userID, eventID)).Scan(&attended); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, err
		}
		return false, fmt.Errorf("toggle attendance: %w", err)
	}
	return attended, nil
}

// SetAttendanceBulk sets attended for every listed user of the event in one
// transaction. When any registration is missing nothing is changed and the
// missing user ids are returned.
func (r *RegistrationRepository) SetAttendanceBulk(ctx context.Context, eventID int, userIDs []string, attended bool) ([]string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin bulk attendance: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var found []string
	const lockQuery = `SELECT user_id FROM registrations WHERE event_id = $1 AND user_id = ANY($2) FOR UPDATE`
	if err := tx.SelectContext(ctx, &found, lockQuery, eventID, pq.Array(userIDs)); err != nil {
		return nil, fmt.Errorf("lock registrations: %w", err)
	}
	if missing := difference(userIDs, found); len(missing) > 0 {
		return missing, nil
	}

	const updateQuery = `UPDATE registrations SET attended = $3 WHERE event_id = $1 AND user_id = ANY($2)`
	if _, err := tx.ExecContext(ctx, updateQuery, eventID, pq.Array(userIDs), attended); err != nil {
		return nil, fmt.Errorf("update bulk attendance: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit bulk attendance: %w", err)
	}
	return nil, nil
}

// Delete removes exactly one registration.
func (r *RegistrationRepository) Delete(ctx context.Context, userID string, eventID int) error {
	const query = `DELETE FROM registrations WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, models.RegistrationID(userID, eventID))
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	return expectAffected(res)
}

// DeleteByRoll removes every registration owned by the roll number.
func (r *RegistrationRepository) DeleteByRoll(ctx context.Context, roll string) (int64, error) {
	const query = `DELETE FROM registrations WHERE user_roll = $1`
	res, err := r.db.ExecContext(ctx, query, roll)
	if err != nil {
		return 0, fmt.Errorf("delete registrations by roll: %w", err)
	}
	return res.RowsAffected()
}

// UpdateByRoll copies profile edits into the snapshot columns of every
// registration owned by the roll number.
func (r *RegistrationRepository) UpdateByRoll(ctx context.Context, roll string, patch models.ProfilePatch) (int64, error) {
	sets, args := registrationPatch(patch)
	if len(sets) == 0 {
		return 0, nil
	}
	args = append(args, roll)
	query := fmt.Sprintf("UPDATE registrations SET %s WHERE user_roll = $%d", strings.Join(sets, ", "), len(args))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update registrations by roll: %w", err)
	}
	return res.RowsAffected()
}

func registrationPatch(patch models.ProfilePatch) ([]string, []interface{}) {
	var sets []string
	var args []interface{}
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Name != nil {
		add("user_name", *patch.Name)
	}
	if patch.Mobile != nil {
		add("user_mobile", *patch.Mobile)
	}
	if patch.Department != nil {
		add("department", *patch.Department)
	}
	if patch.Year != nil {
		add("year", *patch.Year)
	}
	return sets, args
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// difference returns the ids in want that are absent from have, in want order.
func difference(want, have []string) []string {
	present := make(map[string]struct{}, len(have))
	for _, id := range have {
		present[id] = struct{}{}
	}
	var missing []string
	seen := make(map[string]struct{}, len(want))
	for _, id := range want {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
