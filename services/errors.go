package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error.
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeInternal     ErrorType = "internal"
	ErrorTypeExternal     ErrorType = "external"
)

// DomainError represents a structured error with additional context.
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is: two domain errors match when their types and
// messages match, so wrapped variants still compare equal to the
// package-level sentinels.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Message == t.Message
}

// NewDomainError creates a new domain error.
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

var (
	// ErrUserNotFound is returned when a user lookup matches nothing.
	ErrUserNotFound = NewDomainError(ErrorTypeNotFound, "user not found", nil)

	// ErrDuplicateEmail is returned by registration when the email is
	// already taken, regardless of auth provider.
	ErrDuplicateEmail = NewDomainError(ErrorTypeConflict, "user with this email already exists", nil)

	// ErrInvalidCredentials is returned on failed login. It deliberately
	// does not distinguish an unknown email from a wrong password.
	ErrInvalidCredentials = NewDomainError(ErrorTypeUnauthorized, "invalid email or password", nil)

	// ErrMissingExternalID is returned when a reconciled identity has no
	// subject id.
	ErrMissingExternalID = NewDomainError(ErrorTypeValidation, "external identity missing subject id", nil)
)

// IsNotFoundError checks if an error is a not found error.
func IsNotFoundError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeNotFound
	}
	return false
}

// IsConflictError checks if an error is a conflict error.
func IsConflictError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeConflict
	}
	return false
}

// IsUnauthorizedError checks if an error is an unauthorized error.
func IsUnauthorizedError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeUnauthorized
	}
	return false
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeValidation
	}
	return false
}

// WrapInternal wraps an error as an internal error.
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}
