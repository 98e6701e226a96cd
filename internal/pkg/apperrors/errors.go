package apperrors

import "errors"

// Error categories surfaced to API callers. Every service error wraps one of
// these sentinels so handlers can map it to an HTTP status with errors.Is.
var (
	// ErrValidation marks malformed or missing input.
	ErrValidation = errors.New("validation failed")
	// ErrConflict marks an invalid state transition (already approved,
	// already ended, already submitted).
	ErrConflict = errors.New("conflict")
	// ErrForbidden marks a class mismatch or a wrong continuation secret.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound marks an unknown code, submission, exam or attempt.
	ErrNotFound = errors.New("not found")
	// ErrPrecondition marks a business rule that is not yet satisfiable,
	// e.g. an objective submission still missing its marks per question.
	ErrPrecondition = errors.New("precondition not met")
)

// Error carries a category sentinel plus a human-readable reason.
type Error struct {
	Err     error
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap exposes the category sentinel to errors.Is.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidationError creates a validation error with a reason.
func NewValidationError(message string) error {
	return &Error{Err: ErrValidation, Message: message}
}

// NewConflictError creates a conflict error with a reason.
func NewConflictError(message string) error {
	return &Error{Err: ErrConflict, Message: message}
}

// NewForbiddenError creates a forbidden error with a reason.
func NewForbiddenError(message string) error {
	return &Error{Err: ErrForbidden, Message: message}
}

// NewNotFoundError creates a not-found error with a reason.
func NewNotFoundError(message string) error {
	return &Error{Err: ErrNotFound, Message: message}
}

// NewPreconditionError creates a precondition error with a reason.
func NewPreconditionError(message string) error {
	return &Error{Err: ErrPrecondition, Message: message}
}
