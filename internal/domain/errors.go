package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrConflict          = errors.New("resource was modified concurrently")
	ErrValidation        = errors.New("validation failed")
	ErrDuplicateInvoice  = errors.New("invoice number already exists")
	ErrPeriodMismatch    = errors.New("invoice issue date is outside the filing period")
	ErrMalformedInput    = errors.New("malformed input")
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrStorageFailed     = errors.New("report upload to storage failed")
)

// FieldError reports a missing or invalid field. It matches ErrValidation.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error { return ErrValidation }

// NewFieldError returns a *FieldError for field.
func NewFieldError(field, message string) error {
	return &FieldError{Field: field, Message: message}
}

// Malformed wraps ErrMalformedInput with a description of what was wrong.
func Malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedInput, fmt.Sprintf(format, args...))
}
