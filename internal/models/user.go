package models

import "time"

// Role is the permission class of a signed-in account.
type Role string

const (
	RoleAdmin              Role = "admin"
	RoleEventCoordinator   Role = "event_coordinator"
	RoleStudentCoordinator Role = "student_coordinator"
	RoleStudent            Role = "student"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEventCoordinator, RoleStudentCoordinator, RoleStudent:
		return true
	default:
		return false
	}
}

// IsCoordinator is true for every role other than student.
func (r Role) IsCoordinator() bool {
	return r == RoleAdmin || r == RoleEventCoordinator || r == RoleStudentCoordinator
}

// StudentProfile is the identity derived from an institutional account plus the
// contact details the student fills in.
type StudentProfile struct {
	UserID     string    `db:"user_id" json:"user_id" firestore:"-"`
	RollNumber string    `db:"roll_number" json:"roll_number" firestore:"rollNumber"`
	Name       string    `db:"name" json:"name" firestore:"name"`
	Department string    `db:"department" json:"department" firestore:"department"`
	Year       *int      `db:"year" json:"year,omitempty" firestore:"year"`
	Email      string    `db:"email" json:"email" firestore:"email"`
	Mobile     *string   `db:"mobile" json:"mobile,omitempty" firestore:"mobile"`
	PhotoURL   *string   `db:"photo_url" json:"photo_url,omitempty" firestore:"photoURL"`
	CreatedAt  time.Time `db:"created_at" json:"created_at" firestore:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at" firestore:"updatedAt"`
}

// HasMobile reports whether a non-empty mobile number is on file.
func (p *StudentProfile) HasMobile() bool {
	return p != nil && p.Mobile != nil && *p.Mobile != ""
}

// Complete is true once mobile, department and year are all present.
func (p *StudentProfile) Complete() bool {
	return p.HasMobile() && p.Department != "" && p.Year != nil
}

// ProfilePatch carries admin edits to a student's details. Nil fields are left untouched.
type ProfilePatch struct {
	Name       *string `json:"name" validate:"omitempty,min=1,max=120"`
	Mobile     *string `json:"mobile" validate:"omitempty,mobile"`
	Department *string `json:"department" validate:"omitempty,min=1,max=80"`
	Year       *int    `json:"year" validate:"omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p ProfilePatch) Empty() bool {
	return p.Name == nil && p.Mobile == nil && p.Department == nil && p.Year == nil
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// UpdateProfileRequest is the self-service profile edit. Only mobile and name are editable.
type UpdateProfileRequest struct {
	Mobile string  `json:"mobile" validate:"required"`
	Name   *string `json:"name" validate:"omitempty,min=1,max=120"`
}

// UserDeletionResult reports what DeleteUserByRoll removed.
type UserDeletionResult struct {
	RollNumber           string `json:"roll_number"`
	RegistrationsDeleted int64  `json:"registrations_deleted"`
	ProfileDeleted       bool   `json:"profile_deleted"`
}

// UserUpdateResult reports what UpdateUserDetails changed.
type UserUpdateResult struct {
	RollNumber           string `json:"roll_number"`
	RegistrationsUpdated int64  `json:"registrations_updated"`
	ProfileUpdated       bool   `json:"profile_updated"`
}
