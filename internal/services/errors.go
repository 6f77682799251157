package services

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrBillingCustomerMissing = errors.New("tenant has no billing customer")
	ErrStudentNotFound        = errors.New("student not found")
	ErrPhotoNotFound          = errors.New("student has no photo")
	ErrTenantNotFound         = errors.New("tenant not found")
	ErrUnusableTenantName     = errors.New("name cannot be used as an academy identifier; use latin letters or digits, not a reserved name such as \"public\" or one starting with \"pg\"")
)

// ValidationError is malformed client input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConflictError is client input that collides with an existing record.
type ConflictError struct {
	Field   string
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func validationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: err.Error()}
}
