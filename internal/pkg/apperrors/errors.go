package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("resource not found")

	ErrInvalidArgument = errors.New("invalid argument")

	ErrValidation = errors.New("validation failed")

	ErrAlreadyExists = errors.New("resource already exists")

	ErrDatabase = errors.New("database error")

	ErrInternalServer = errors.New("internal server error")

	ErrUnauthorized = errors.New("unauthorized")

	ErrConflict = errors.New("resource conflict")

	// ErrUnsupported is returned for unknown file extensions, entities and key kinds.
	ErrUnsupported = errors.New("unsupported")

	ErrParse = errors.New("parse error")

	ErrCoercion = errors.New("type coercion failed")

	ErrSynthesis = errors.New("feature synthesis failed")

	ErrMerge = errors.New("feature merge failed")

	ErrPublish = errors.New("spreadsheet publish failed")
)

type ValidationError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

func NewValidationError(field, message string) error {

	return fmt.Errorf("%w: %w", ErrValidation, &ValidationError{Field: field, Message: message})
}

// NewCoercionError reports a value in a column that could not be converted.
func NewCoercionError(column string, row int, value any, cause error) error {
	return fmt.Errorf("%w: column %q row %d value %v: %w", ErrCoercion, column, row, value, cause)
}
