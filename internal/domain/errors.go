package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists is returned when a resource already exists
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when a concurrent write lost a uniqueness race
	ErrConflict = errors.New("conflict occurred")

	// ErrUnauthenticated is returned when the request carries no valid session
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrProfileNotFound is returned when an authenticated subject has no profile yet
	ErrProfileNotFound = errors.New("profile not found")

	// ErrForbidden is returned when the requester does not own the resource
	ErrForbidden = errors.New("forbidden")

	// ErrStorage is returned when the object store fails
	ErrStorage = errors.New("storage error")

	// ErrUnavailable is returned when a backing store timed out or is unreachable
	ErrUnavailable = errors.New("service unavailable")

	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
)

// Image validation failures. All of them match ErrInvalidInput with errors.Is.
var (
	ErrTooManyImages   = fmt.Errorf("%w: too many images", ErrInvalidInput)
	ErrImageTooLarge   = fmt.Errorf("%w: image too large", ErrInvalidInput)
	ErrUnsupportedType = fmt.Errorf("%w: unsupported image type", ErrInvalidInput)
)

// ValidationError carries a field-level message that is safe to show to the user.
type ValidationError struct {
	Field   string
	Message string
	Kind    error
}

// NewValidationError creates a ValidationError of kind ErrInvalidInput
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message, Kind: ErrInvalidInput}
}

// NewImageError creates a ValidationError of one of the image kinds
func NewImageError(kind error, message string) *ValidationError {
	return &ValidationError{Field: "images", Message: message, Kind: kind}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Kind == nil {
		return ErrInvalidInput
	}
	return e.Kind
}
