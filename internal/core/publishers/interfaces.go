package publishers

import "context"

// Publisher is the capability set the scheduler needs from a social platform.
// Implementations must classify publish failures as *DuplicateContentError
// (never retried) or *TransientError (retried by the poller's policy).
type Publisher interface {
	// Publish creates a post on the platform and returns the platform's post ID
	Publish(ctx context.Context, content string, media *Media) (string, error)

	// DeleteByPlatformID removes a previously published post
	DeleteByPlatformID(ctx context.Context, platformPostID string) error
}
