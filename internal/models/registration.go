package models

import (
	"fmt"
	"time"
)

// Registration is one student's place in one event. Student fields are a snapshot
// taken at write time.
type Registration struct {
	ID           string    `db:"id" json:"id" firestore:"-"`
	UserID       string    `db:"user_id" json:"user_id" firestore:"userId"`
	EventID      int       `db:"event_id" json:"event_id" firestore:"eventId"`
	EventName    string    `db:"event_name" json:"event_name" firestore:"eventName"`
	UserRoll     string    `db:"user_roll" json:"user_roll" firestore:"userRoll"`
	UserName     string    `db:"user_name" json:"user_name" firestore:"userName"`
	UserEmail    string    `db:"user_email" json:"user_email" firestore:"userEmail"`
	UserMobile   string    `db:"user_mobile" json:"user_mobile" firestore:"userMobile"`
	Department   string    `db:"department" json:"department" firestore:"department"`
	Year         int       `db:"year" json:"year" firestore:"year"`
	RegisteredAt time.Time `db:"registered_at" json:"registered_at" firestore:"registeredAt"`
	Attended     bool      `db:"attended" json:"attended" firestore:"attended"`
}

// RegistrationID builds the composite key of a (user, event) pair.
func RegistrationID(userID string, eventID int) string {
	return fmt.Sprintf("%s_%d", userID, eventID)
}

// RegistrationFilter scopes registration listings. Zero values match everything.
type RegistrationFilter struct {
	EventID  *int
	UserID   string
	UserRoll string
}

// RegistrationStatus is the outcome of a registration attempt.
type RegistrationStatus string

const (
	RegistrationStatusRegistered        RegistrationStatus = "registered"
	RegistrationStatusAlreadyRegistered RegistrationStatus = "already_registered"
	RegistrationStatusMissingMobile     RegistrationStatus = "missing_mobile"
	RegistrationStatusProfileIncomplete RegistrationStatus = "profile_incomplete"
	RegistrationStatusClosed            RegistrationStatus = "registration_closed"
)

// RegistrationOutcome reports what a registration attempt did. Only Registered writes.
type RegistrationOutcome struct {
	Status       RegistrationStatus `json:"status"`
	Registration *Registration      `json:"registration,omitempty"`
}

// OK is true when a new registration was written.
func (o *RegistrationOutcome) OK() bool {
	return o != nil && o.Status == RegistrationStatusRegistered
}

// StudentFields is the manual-insert payload used by administrators.
type StudentFields struct {
	RollNumber string `json:"roll_number" validate:"required,min=5,max=20"`
	Name       string `json:"name" validate:"required,max=120"`
	Email      string `json:"email" validate:"required,email"`
	Mobile     string `json:"mobile" validate:"required,mobile"`
	Department string `json:"department" validate:"required,max=80"`
	Year       int    `json:"year" validate:"required"`
}

// BulkAttendanceRequest marks several registrations of one event at once.
type BulkAttendanceRequest struct {
	UserIDs  []string `json:"user_ids" validate:"required,min=1,dive,required"`
	Attended bool     `json:"attended"`
}

// BulkAttendanceResult summarises a bulk attendance call.
type BulkAttendanceResult struct {
	Requested int      `json:"requested"`
	Updated   int      `json:"updated"`
	Missing   []string `json:"missing,omitempty"`
}
