package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/psgtech-fest/fest-api/internal/models"
)

// Collection names shared with the web client and the mail extension.
const (
	RegistrationsCollection = "registrations"
	UsersCollection         = "users"
	MailCollection          = "mail"
)

var (
	errBulkMissing           = errors.New("registrations missing")
	errDuplicateRegistration = errors.New("registration exists")
)

// FirestoreRegistrationRepository keeps registrations as documents named
// "<userId>_<eventId>". Not-found conditions surface as sql.ErrNoRows so services
// treat both stores alike.
type FirestoreRegistrationRepository struct {
	client *firestore.Client
}

// NewFirestoreRegistrationRepository constructs the repository.
func NewFirestoreRegistrationRepository(client *firestore.Client) *FirestoreRegistrationRepository {
	return &FirestoreRegistrationRepository{client: client}
}

// Ping reads at most one document to confirm the store is reachable.
func (r *FirestoreRegistrationRepository) Ping(ctx context.Context) error {
	iter := r.client.Collection(RegistrationsCollection).Limit(1).Documents(ctx)
	defer iter.Stop()
	if _, err := iter.Next(); err != nil && err != iterator.Done {
		return fmt.Errorf("ping firestore: %w", err)
	}
	return nil
}

func (r *FirestoreRegistrationRepository) doc(userID string, eventID int) *firestore.DocumentRef {
	return r.client.Collection(RegistrationsCollection).Doc(models.RegistrationID(userID, eventID))
}

// Create writes the document unless it exists or another registration for the
// same roll number and event does. The roll lookup and the write share a transaction.
func (r *FirestoreRegistrationRepository) Create(ctx context.Context, reg *models.Registration) (bool, error) {
	reg.ID = models.RegistrationID(reg.UserID, reg.EventID)
	reg.Attended = false
	data := map[string]interface{}{
		"userId":       reg.UserID,
		"eventId":      reg.EventID,
		"eventName":    reg.EventName,
		"userRoll":     reg.UserRoll,
		"userName":     reg.UserName,
		"userEmail":    reg.UserEmail,
		"userMobile":   reg.UserMobile,
		"department":   reg.Department,
		"year":         reg.Year,
		"registeredAt": firestore.ServerTimestamp,
		"attended":     false,
	}
	ref := r.client.Collection(RegistrationsCollection).Doc(reg.ID)
	sameRoll := r.client.Collection(RegistrationsCollection).
		Where("userRoll", "==", reg.UserRoll).
		Where("eventId", "==", reg.EventID).
		Limit(1)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if reg.UserRoll != "" {
			snaps, err := tx.Documents(sameRoll).GetAll()
			if err != nil {
				return err
			}
			if len(snaps) > 0 {
				return errDuplicateRegistration
			}
		}
		return tx.Create(ref, data)
	})
	if errors.Is(err, errDuplicateRegistration) || status.Code(err) == codes.AlreadyExists {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create registration: %w", err)
	}
	reg.RegisteredAt = time.Now()
	if snap, err := ref.Get(ctx); err == nil {
		reg.RegisteredAt = snap.UpdateTime
	}
	return true, nil
}

// FindByID returns the registration of a user for an event.
func (r *FirestoreRegistrationRepository) FindByID(ctx context.Context, userID string, eventID int) (*models.Registration, error) {
	snap, err := r.doc(userID, eventID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return decodeRegistration(snap)
}

// List returns registrations matching the filter, newest first.
func (r *FirestoreRegistrationRepository) List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, error) {
	q := r.client.Collection(RegistrationsCollection).Query
	if filter.EventID != nil {
		q = q.Where("eventId", "==", *filter.EventID)
	}
	if filter.UserID != "" {
		q = q.Where("userId", "==", filter.UserID)
	}
	if filter.UserRoll != "" {
		q = q.Where("userRoll", "==", filter.UserRoll)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()
	var regs []models.Registration
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list registrations: %w", err)
		}
		reg, err := decodeRegistration(snap)
		if err != nil {
			return nil, err
		}
		regs = append(regs, *reg)
	}
	sortNewestFirst(regs)
	return regs, nil
}

// ToggleAttendance flips the attended flag inside a transaction.
func (r *FirestoreRegistrationRepository) ToggleAttendance(ctx context.Context, userID string, eventID int) (bool, error) {
	ref := r.doc(userID, eventID)
	var attended bool
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var reg models.Registration
		if err := snap.DataTo(&reg); err != nil {
			return err
		}
		attended = !reg.Attended
		return tx.Update(ref, []firestore.Update{{Path: "attended", Value: attended}})
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, sql.ErrNoRows
		}
		return false, fmt.Errorf("toggle attendance: %w", err)
	}
	return attended, nil
}

// SetAttendanceBulk updates every listed registration in one transaction, or none
// of them when any is missing.
func (r *FirestoreRegistrationRepository) SetAttendanceBulk(ctx context.Context, eventID int, userIDs []string, attended bool) ([]string, error) {
	ids := difference(userIDs, nil)
	refs := make([]*firestore.DocumentRef, len(ids))
	for i, id := range ids {
		refs[i] = r.doc(id, eventID)
	}

	var missing []string
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		missing = nil
		snaps, err := tx.GetAll(refs)
		if err != nil {
			return err
		}
		for i, snap := range snaps {
			if !snap.Exists() {
				missing = append(missing, ids[i])
			}
		}
		if len(missing) > 0 {
			return errBulkMissing
		}
		for _, ref := range refs {
			if err := tx.Update(ref, []firestore.Update{{Path: "attended", Value: attended}}); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, errBulkMissing) {
		return missing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("bulk attendance: %w", err)
	}
	return nil, nil
}

// Delete removes exactly one registration.
func (r *FirestoreRegistrationRepository) Delete(ctx context.Context, userID string, eventID int) error {
	if _, err := r.doc(userID, eventID).Delete(ctx, firestore.Exists); err != nil {
		if status.Code(err) == codes.NotFound {
			return sql.ErrNoRows
		}
		return fmt.Errorf("delete registration: %w", err)
	}
	return nil
}

// DeleteByRoll removes every registration owned by the roll number.
func (r *FirestoreRegistrationRepository) DeleteByRoll(ctx context.Context, roll string) (int64, error) {
	q := r.client.Collection(RegistrationsCollection).Where("userRoll", "==", roll)
	var deleted int64
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snaps, err := tx.Documents(q).GetAll()
		if err != nil {
			return err
		}
		deleted = int64(len(snaps))
		for _, snap := range snaps {
			if err := tx.Delete(snap.Ref); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete registrations by roll: %w", err)
	}
	return deleted, nil
}

// UpdateByRoll copies profile edits into every registration owned by the roll number.
func (r *FirestoreRegistrationRepository) UpdateByRoll(ctx context.Context, roll string, patch models.ProfilePatch) (int64, error) {
	updates := registrationUpdates(patch)
	if len(updates) == 0 {
		return 0, nil
	}
	q := r.client.Collection(RegistrationsCollection).Where("userRoll", "==", roll)
	var updated int64
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snaps, err := tx.Documents(q).GetAll()
		if err != nil {
			return err
		}
		updated = int64(len(snaps))
		for _, snap := range snaps {
			if err := tx.Update(snap.Ref, updates); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("update registrations by roll: %w", err)
	}
	return updated, nil
}

func registrationUpdates(patch models.ProfilePatch) []firestore.Update {
	var updates []firestore.Update
	if patch.Name != nil {
		updates = append(updates, firestore.Update{Path: "userName", Value: *patch.Name})
	}
	if patch.Mobile != nil {
		updates = append(updates, firestore.Update{Path: "userMobile", Value: *patch.Mobile})
	}
	if patch.Department != nil {
		updates = append(updates, firestore.Update{Path: "department", Value: *patch.Department})
	}
	if patch.Year != nil {
		updates = append(updates, firestore.Update{Path: "year", Value: *patch.Year})
	}
	return updates
}

func decodeRegistration(snap *firestore.DocumentSnapshot) (*models.Registration, error) {
	var reg models.Registration
	if err := snap.DataTo(&reg); err != nil {
		return nil, fmt.Errorf("decode registration %s: %w", snap.Ref.ID, err)
	}
	reg.ID = snap.Ref.ID
	return &reg, nil
}

func sortNewestFirst(regs []models.Registration) {
	sort.SliceStable(regs, func(i, j int) bool {
		return regs[i].RegisteredAt.After(regs[j].RegisteredAt)
	})
}
