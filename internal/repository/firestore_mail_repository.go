package repository

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/psgtech-fest/fest-api/internal/models"
)

// FirestoreMailRepository writes mail/{id} documents picked up by the trigger email extension.
type FirestoreMailRepository struct {
	client *firestore.Client
}

// NewFirestoreMailRepository constructs the repository.
func NewFirestoreMailRepository(client *firestore.Client) *FirestoreMailRepository {
	return &FirestoreMailRepository{client: client}
}

// Create writes the mail document. An existing document with the same id is left alone.
func (r *FirestoreMailRepository) Create(ctx context.Context, msg *models.MailMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if _, err := r.client.Collection(MailCollection).Doc(msg.ID).Create(ctx, msg); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil
		}
		return fmt.Errorf("create mail: %w", err)
	}
	return nil
}
