package scheduled

import (
	"context"
	"time"
)

// Repository persists scheduled jobs.
// Every Mark* method is a single conditional update keyed on the job's
// expected prior state, so concurrent pollers can never both act on one job.
type Repository interface {
	// Create inserts a new job
	Create(ctx context.Context, job *Job) error

	// GetByID retrieves a job, ErrNotFound if missing
	GetByID(ctx context.Context, id string) (*Job, error)

	// List returns jobs newest target first
	List(ctx context.Context, req ListJobsRequest) ([]*Job, error)

	// Update rewrites the editable fields of a pending job.
	// Returns ErrNotEditable if the job is no longer pending.
	Update(ctx context.Context, job *Job) error

	// Delete removes a job regardless of state
	Delete(ctx context.Context, id string) error

	// FindDue returns pending jobs whose target time and retry window have
	// passed, earliest target first. limit <= 0 returns every due job.
	FindDue(ctx context.Context, now time.Time, limit int) ([]*Job, error)

	// MarkPublishing claims a pending job that is due at now
	// (pending -> publishing, attempts+1) and returns the claimed row.
	// Returns nil if the job is no longer pending or no longer due.
	MarkPublishing(ctx context.Context, id string, now time.Time) (*Job, error)

	// MarkPublished records success (publishing -> published)
	MarkPublished(ctx context.Context, id, platformPostID string, now time.Time) error

	// MarkFailed records a permanent failure (publishing -> failed)
	MarkFailed(ctx context.Context, id, reason string, now time.Time) error

	// MarkRetry releases a claim for another attempt after nextAttemptAt
	// (publishing -> pending)
	MarkRetry(ctx context.Context, id, reason string, nextAttemptAt, now time.Time) error

	// FindStale returns publishing jobs claimed before claimedBefore; their
	// poller most likely died mid-publish
	FindStale(ctx context.Context, claimedBefore time.Time) ([]*Job, error)
}

// Service is the client-facing API over scheduled jobs
type Service interface {
	CreateJob(ctx context.Context, req CreateJobRequest) (*Job, error)
	GetJob(ctx context.Context, id string) (*Job, error)
	ListJobs(ctx context.Context, req ListJobsRequest) ([]*Job, error)

	// UpdateJob edits a job that has not been claimed yet
	UpdateJob(ctx context.Context, id string, req UpdateJobRequest) (*Job, error)

	// DeleteJob removes a job; deletion ignores lifecycle state
	DeleteJob(ctx context.Context, id string) error
}
