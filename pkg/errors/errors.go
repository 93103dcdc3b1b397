package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound        = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden       = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized    = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrValidation      = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal        = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss       = New("CACHE_MISS", http.StatusNotFound, "cache miss")
	ErrTooManyRequests = New("TOO_MANY_REQUESTS", http.StatusTooManyRequests, "rate limit exceeded")
)

// Identity and registration errors.
var (
	ErrInvalidDomain       = New("INVALID_DOMAIN", http.StatusForbidden, "email is not an institutional address")
	ErrMalformedRollNumber = New("MALFORMED_ROLL_NUMBER", http.StatusUnprocessableEntity, "email does not contain a valid roll number")
	ErrInvalidMobile       = New("INVALID_MOBILE", http.StatusBadRequest, "mobile must be a 10 digit number starting with 6-9")
	ErrMissingMobile       = New("MISSING_MOBILE", http.StatusUnprocessableEntity, "add your mobile number before registering")
	ErrProfileIncomplete   = New("PROFILE_INCOMPLETE", http.StatusUnprocessableEntity, "complete your profile before registering")
	ErrAlreadyRegistered   = New("ALREADY_REGISTERED", http.StatusConflict, "already registered for this event")
	ErrRegistrationClosed  = New("REGISTRATION_CLOSED", http.StatusConflict, "registration is closed for this event")
	ErrBulkPartialFailure  = New("BULK_PARTIAL_FAILURE", http.StatusConflict, "attendance was not updated for every participant")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
