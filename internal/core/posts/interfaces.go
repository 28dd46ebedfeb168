package posts

import (
	"context"
	"time"

	"Socialbot/internal/core/publishers"
)

// Service defines the business logic interface for posts
// Coordinates between Repository, the scheduled job service and publishers
type Service interface {
	// CreatePost saves a draft, publishes immediately or schedules a job,
	// depending on the requested status
	CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error)

	GetPost(ctx context.Context, id string) (*Post, error)
	ListPosts(ctx context.Context, filter ListFilter) (*ListResult, error)

	// UpdatePost edits a post and moves it between draft, scheduled and
	// published, keeping its scheduled job in step
	UpdatePost(ctx context.Context, id string, req UpdatePostRequest) (*Post, error)

	// DeletePost removes a post locally, attempting a platform delete first
	// for published posts
	DeletePost(ctx context.Context, id string) error

	// CountPosts counts posts per platform, optionally for one status
	CountPosts(ctx context.Context, status *Status) (*CountResult, error)

	// LinkPublished marks a scheduled post published once its job succeeded
	LinkPublished(ctx context.Context, postID, platformPostID string, publishedAt time.Time) error
}

// Repository defines the data access interface for posts
type Repository interface {
	Create(ctx context.Context, post *Post) error

	// GetByID retrieves a post, ErrNotFound if missing
	GetByID(ctx context.Context, id string) (*Post, error)

	// List returns the page selected by filter and the total match count
	List(ctx context.Context, filter ListFilter) ([]*Post, int, error)

	Update(ctx context.Context, post *Post) error

	// Delete removes a post; its scheduled job goes with it
	Delete(ctx context.Context, id string) error

	// CountByPlatform counts posts per platform, optionally for one status
	CountByPlatform(ctx context.Context, status *Status) (map[publishers.Platform]int, error)

	// MarkPublished moves a scheduled post to published.
	// Returns ErrNotFound if no scheduled post has the ID.
	MarkPublished(ctx context.Context, id, platformPostID string, publishedAt time.Time) error
}

// PublisherSource resolves the publisher for a platform
type PublisherSource interface {
	Get(platform publishers.Platform) (publishers.Publisher, error)
}
