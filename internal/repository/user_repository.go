package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/psgtech-fest/fest-api/internal/models"
)

const profileColumns = `user_id, roll_number, name, department, year, email, mobile, photo_url, created_at, updated_at`

// UserRepository stores student profiles keyed by the auth provider user id.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID returns a profile by auth provider user id.
func (r *UserRepository) FindByID(ctx context.Context, userID string) (*models.StudentProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM users WHERE user_id = $1 LIMIT 1`
	var profile models.StudentProfile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &profile, nil
}

// FindByRoll returns a profile by roll number.
func (r *UserRepository) FindByRoll(ctx context.Context, roll string) (*models.StudentProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM users WHERE roll_number = $1 LIMIT 1`
	var profile models.StudentProfile
	if err := r.db.GetContext(ctx, &profile, query, roll); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by roll: %w", err)
	}
	return &profile, nil
}

// Create stores a new profile. It reports false when the user already has one.
func (r *UserRepository) Create(ctx context.Context, profile *models.StudentProfile) (bool, error) {
	now := time.Now().UTC()
	profile.CreatedAt, profile.UpdatedAt = now, now
	const query = `INSERT INTO users (user_id, roll_number, name, department, year, email, mobile, photo_url, created_at, updated_at)
        VALUES (:user_id, :roll_number, :name, :department, :year, :email, :mobile, :photo_url, :created_at, :updated_at)
        ON CONFLICT (user_id) DO NOTHING`
	res, err := r.db.NamedExecContext(ctx, query, profile)
	if err != nil {
		return false, fmt.Errorf("create user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create user: %w", err)
	}
	return n > 0, nil
}

// UpdatePhoto refreshes the provider supplied photo.
func (r *UserRepository) UpdatePhoto(ctx context.Context, userID string, photoURL *string) error {
	const query = `UPDATE users SET photo_url = $2, updated_at = $3 WHERE user_id = $1`
	res, err := r.db.ExecContext(ctx, query, userID, photoURL, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update photo: %w", err)
	}
	return expectAffected(res)
}

// UpdateProfile applies a patch to one user's profile.
func (r *UserRepository) UpdateProfile(ctx context.Context, userID string, patch models.ProfilePatch) error {
	res, err := r.update(ctx, "user_id", userID, patch)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// UpdateByRoll applies a patch to the profile owning the roll number.
func (r *UserRepository) UpdateByRoll(ctx context.Context, roll string, patch models.ProfilePatch) (int64, error) {
	res, err := r.update(ctx, "roll_number", roll, patch)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteByRoll removes the profile owning the roll number.
func (r *UserRepository) DeleteByRoll(ctx context.Context, roll string) (int64, error) {
	const query = `DELETE FROM users WHERE roll_number = $1`
	res, err := r.db.ExecContext(ctx, query, roll)
	if err != nil {
		return 0, fmt.Errorf("delete user by roll: %w", err)
	}
	return res.RowsAffected()
}

func (r *UserRepository) update(ctx context.Context, keyColumn, key string, patch models.ProfilePatch) (sql.Result, error) {
	var sets []string
	var args []interface{}
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Mobile != nil {
		add("mobile", *patch.Mobile)
	}
	if patch.Department != nil {
		add("department", *patch.Department)
	}
	if patch.Year != nil {
		add("year", *patch.Year)
	}
	add("updated_at", time.Now().UTC())
	args = append(args, key)
	query := fmt.Sprintf("UPDATE users SET %s WHERE %s = $%d", strings.Join(sets, ", "), keyColumn, len(args))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return res, nil
}
