package publishers

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrUnsupportedPlatform is returned when no publisher handles a platform
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrPostNotFound is returned when the platform no longer has the post
	ErrPostNotFound = errors.New("platform post not found")

	// ErrDeleteUnsupported is returned by platforms whose API cannot delete posts
	ErrDeleteUnsupported = errors.New("platform does not support deleting posts")

	// ErrMediaRequired is returned by platforms that cannot publish text-only posts
	ErrMediaRequired = errors.New("platform requires media")
)

// DuplicateContentError means the platform rejected the post because the same
// content was already published. Retrying will never succeed.
type DuplicateContentError struct {
	Platform Platform
	Message  string
}

func (e *DuplicateContentError) Error() string {
	return fmt.Sprintf("%s rejected duplicate content: %s", e.Platform, e.Message)
}

// NewDuplicateContentError creates a duplicate content error
func NewDuplicateContentError(platform Platform, message string) error {
	return &DuplicateContentError{Platform: platform, Message: message}
}

// IsDuplicateContent checks if err (or anything it wraps) is a duplicate content error
func IsDuplicateContent(err error) bool {
	var dupErr *DuplicateContentError
	return errors.As(err, &dupErr)
}

// TransientError wraps a failure that may succeed on a later attempt:
// network errors, timeouts, rate limits and unexpected platform responses.
type TransientError struct {
	Err        error
	Platform   Platform
	StatusCode int  // HTTP status, 0 if the request never completed
	Timeout    bool // the call hit its deadline
}

func (e *TransientError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("%s publish timed out: %v", e.Platform, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s returned HTTP %d: %v", e.Platform, e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("%s request failed: %v", e.Platform, e.Err)
	}
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError creates a transient error for a failed HTTP exchange
func NewTransientError(platform Platform, statusCode int, err error) error {
	return &TransientError{Platform: platform, StatusCode: statusCode, Err: err}
}

// NewTimeoutError creates a transient error for a call that exceeded its deadline
func NewTimeoutError(platform Platform, err error) error {
	return &TransientError{Platform: platform, Timeout: true, Err: err}
}

// IsTransient checks if err is a transient publisher error
func IsTransient(err error) bool {
	var transientErr *TransientError
	return errors.As(err, &transientErr)
}
