package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/psgtech-fest/fest-api/internal/models"
)

// FirestoreUserRepository stores profiles as users/{uid} documents.
type FirestoreUserRepository struct {
	client *firestore.Client
}

// NewFirestoreUserRepository constructs the repository.
func NewFirestoreUserRepository(client *firestore.Client) *FirestoreUserRepository {
	return &FirestoreUserRepository{client: client}
}

// FindByID returns a profile by auth provider user id.
func (r *FirestoreUserRepository) FindByID(ctx context.Context, userID string) (*models.StudentProfile, error) {
	snap, err := r.client.Collection(UsersCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return decodeProfile(snap)
}

// FindByRoll returns a profile by roll number.
func (r *FirestoreUserRepository) FindByRoll(ctx context.Context, roll string) (*models.StudentProfile, error) {
	snaps, err := r.client.Collection(UsersCollection).Where("rollNumber", "==", roll).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("find user by roll: %w", err)
	}
	if len(snaps) == 0 {
		return nil, sql.ErrNoRows
	}
	return decodeProfile(snaps[0])
}

// Create stores a new profile unless the user already has one.
func (r *FirestoreUserRepository) Create(ctx context.Context, profile *models.StudentProfile) (bool, error) {
	now := time.Now().UTC()
	profile.CreatedAt, profile.UpdatedAt = now, now
	if _, err := r.client.Collection(UsersCollection).Doc(profile.UserID).Create(ctx, profile); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return false, nil
		}
		return false, fmt.Errorf("create user: %w", err)
	}
	return true, nil
}

// UpdatePhoto refreshes the provider supplied photo.
func (r *FirestoreUserRepository) UpdatePhoto(ctx context.Context, userID string, photoURL *string) error {
	updates := []firestore.Update{
		{Path: "photoURL", Value: photoURL},
		{Path: "updatedAt", Value: time.Now().UTC()},
	}
	return r.updateDoc(ctx, r.client.Collection(UsersCollection).Doc(userID), updates)
}

// UpdateProfile applies a patch to one user's profile.
func (r *FirestoreUserRepository) UpdateProfile(ctx context.Context, userID string, patch models.ProfilePatch) error {
	return r.updateDoc(ctx, r.client.Collection(UsersCollection).Doc(userID), profileUpdates(patch))
}

// UpdateByRoll applies a patch to the profile owning the roll number.
func (r *FirestoreUserRepository) UpdateByRoll(ctx context.Context, roll string, patch models.ProfilePatch) (int64, error) {
	snaps, err := r.client.Collection(UsersCollection).Where("rollNumber", "==", roll).Documents(ctx).GetAll()
	if err != nil {
		return 0, fmt.Errorf("find user by roll: %w", err)
	}
	for _, snap := range snaps {
		if err := r.updateDoc(ctx, snap.Ref, profileUpdates(patch)); err != nil {
			return 0, err
		}
	}
	return int64(len(snaps)), nil
}

// DeleteByRoll removes the profile owning the roll number.
func (r *FirestoreUserRepository) DeleteByRoll(ctx context.Context, roll string) (int64, error) {
	snaps, err := r.client.Collection(UsersCollection).Where("rollNumber", "==", roll).Documents(ctx).GetAll()
	if err != nil {
		return 0, fmt.Errorf("find user by roll: %w", err)
	}
	for _, snap := range snaps {
		if _, err := snap.Ref.Delete(ctx); err != nil {
			return 0, fmt.Errorf("delete user %s: %w", snap.Ref.ID, err)
		}
	}
	return int64(len(snaps)), nil
}

func (r *FirestoreUserRepository) updateDoc(ctx context.Context, ref *firestore.DocumentRef, updates []firestore.Update) error {
	if _, err := ref.Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return sql.ErrNoRows
		}
		return fmt.Errorf("update user %s: %w", ref.ID, err)
	}
	return nil
}

func profileUpdates(patch models.ProfilePatch) []firestore.Update {
	var updates []firestore.Update
	if patch.Name != nil {
		updates = append(updates, firestore.Update{Path: "name", Value: *patch.Name})
	}
	if patch.Mobile != nil {
		updates = append(updates, firestore.Update{Path: "mobile", Value: *patch.Mobile})
	}
	if patch.Department != nil {
		updates = append(updates, firestore.Update{Path: "department", Value: *patch.Department})
	}
	if patch.Year != nil {
		updates = append(updates, firestore.Update{Path: "year", Value: *patch.Year})
	}
	return append(updates, firestore.Update{Path: "updatedAt", Value: time.Now().UTC()})
}

func decodeProfile(snap *firestore.DocumentSnapshot) (*models.StudentProfile, error) {
	var profile models.StudentProfile
	if err := snap.DataTo(&profile); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", snap.Ref.ID, err)
	}
	profile.UserID = snap.Ref.ID
	return &profile, nil
}
