package models

import "errors"

var (
	// ErrUnauthenticated is returned when the caller has no valid session.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned when the caller's role or scope denies the action.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned when a referenced user, team or task does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument signals failed input validation.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrAlreadyExists signals a uniqueness conflict.
	ErrAlreadyExists = errors.New("already exists")
)

// Error is an expected failure carrying a human-readable message for the caller.
// Kind is one of the sentinel errors above so callers can use errors.Is.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Unauthenticated builds an ErrUnauthenticated error.
func Unauthenticated(msg string) error {
	return &Error{Kind: ErrUnauthenticated, Message: msg}
}

// Forbidden builds an ErrForbidden error.
func Forbidden(msg string) error {
	return &Error{Kind: ErrForbidden, Message: msg}
}

// NotFound builds an ErrNotFound error.
func NotFound(msg string) error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

// BadRequest builds an ErrInvalidArgument error.
func BadRequest(msg string) error {
	return &Error{Kind: ErrInvalidArgument, Message: msg}
}

// AlreadyExists builds an ErrAlreadyExists error.
func AlreadyExists(msg string) error {
	return &Error{Kind: ErrAlreadyExists, Message: msg}
}

// Message returns the caller-facing message of an expected error, and false
// for anything that should be reported as an internal failure.
func Message(err error) (string, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Error(), true
	}
	return "", false
}
