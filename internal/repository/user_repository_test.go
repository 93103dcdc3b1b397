package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psgtech-fest/fest-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

var profileColumnNames = []string{"user_id", "roll_number", "name", "department", "year", "email", "mobile", "photo_url", "created_at", "updated_at"}

func TestFindProfileByRoll(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(profileColumnNames).
		AddRow("uid-1", "25MX114", "KAVIN M", "MCA", 1, "25mx114@psgtech.ac.in", "9876543210", nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + profileColumns + " FROM users WHERE roll_number = $1 LIMIT 1")).
		WithArgs("25MX114").
		WillReturnRows(rows)

	profile, err := repo.FindByRoll(context.Background(), "25MX114")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", profile.UserID)
	require.NotNil(t, profile.Year)
	assert.Equal(t, 1, *profile.Year)
	assert.True(t, profile.Complete())
	assert.Nil(t, profile.PhotoURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindProfileByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("FROM users WHERE user_id = \\$1").WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProfileReportsExisting(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users .* ON CONFLICT \\(user_id\\) DO NOTHING").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(0, 0))

	profile := &models.StudentProfile{UserID: "uid-1", RollNumber: "25MX114", Name: "KAVIN M", Email: "25mx114@psgtech.ac.in"}
	created, err := repo.Create(context.Background(), profile)
	require.NoError(t, err)
	assert.True(t, created)
	assert.False(t, profile.CreatedAt.IsZero())

	created, err = repo.Create(context.Background(), profile)
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfileByRollBuildsPartialUpdate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	name := "Kavin M"
	year := 2
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET name = $1, year = $2, updated_at = $3 WHERE roll_number = $4")).
		WithArgs(name, year, sqlmock.AnyArg(), "25MX114").
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := repo.UpdateByRoll(context.Background(), "25MX114", models.ProfilePatch{Name: &name, Year: &year})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePhotoMissingUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("UPDATE users SET photo_url").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePhoto(context.Background(), "ghost", nil)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteProfileByRoll(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE roll_number = $1")).
		WithArgs("25MX114").
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := repo.DeleteByRoll(context.Background(), "25MX114")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
