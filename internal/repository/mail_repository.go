package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/psgtech-fest/fest-api/internal/models"
)

// MailRepository writes mail documents into the outbox table polled by the mailer.
type MailRepository struct {
	db *sqlx.DB
}

// NewMailRepository constructs the repository.
func NewMailRepository(db *sqlx.DB) *MailRepository {
	return &MailRepository{db: db}
}

// Create inserts a mail document. Re-inserting the same id is a no-op so retried
// jobs never send twice.
func (r *MailRepository) Create(ctx context.Context, msg *models.MailMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO mail (id, recipient, sender, subject, html, text, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, msg.ID, msg.To, msg.From, msg.Message.Subject, msg.Message.HTML, msg.Message.Text, msg.CreatedAt); err != nil {
		return fmt.Errorf("create mail: %w", err)
	}
	return nil
}
