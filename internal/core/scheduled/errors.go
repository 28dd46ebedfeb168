package scheduled

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrNotFound is returned when a job does not exist
	ErrNotFound = errors.New("scheduled job not found")

	// ErrNotEditable is returned when a job has left the pending state and
	// can no longer be changed by clients
	ErrNotEditable = errors.New("scheduled job is no longer pending")

	// ErrInvalidTransition is returned when a state change is not allowed from
	// the job's current state (e.g. recording a result for an unclaimed job)
	ErrInvalidTransition = errors.New("invalid job state transition")
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

// ClaimConflictError means another poller already claimed the job.
// Callers skip the job; it is not a failure.
type ClaimConflictError struct {
	JobID string
}

func (e *ClaimConflictError) Error() string {
	return fmt.Sprintf("job %s already claimed", e.JobID)
}

// IsClaimConflict checks if error is a claim conflict
func IsClaimConflict(err error) bool {
	var conflictErr *ClaimConflictError
	return errors.As(err, &conflictErr)
}

// IsNotFound checks if error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
