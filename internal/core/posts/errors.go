package posts

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Sentinel errors for common post operations
var (
	// ErrNotFound is returned when a post does not exist
	ErrNotFound = errors.New("post not found")

	// ErrNotEditable is returned when a post can no longer change, either
	// because it is published or because its scheduled job already started
	ErrNotEditable = errors.New("post can no longer be modified")
)

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error (%s): %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsValidationError checks if error is a validation error
func IsValidationError(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}

// IsNotFound checks if error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
