package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psgtech-fest/fest-api/internal/models"
)

func TestCreateMailIsIdempotent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMailRepository(db)

	mock.ExpectExec("INSERT INTO mail .* ON CONFLICT \\(id\\) DO NOTHING").
		WithArgs("m-1", "25mx114@psgtech.ac.in", "", "Registered: Code Sprint", "<p>hi</p>", "hi", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	msg := &models.MailMessage{
		ID: "m-1",
		To: "25mx114@psgtech.ac.in",
		Message: models.MailContent{
			Subject: "Registered: Code Sprint",
			HTML:    "<p>hi</p>",
			Text:    "hi",
		},
	}
	require.NoError(t, repo.Create(context.Background(), msg))
	assert.False(t, msg.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
