package scheduled

import (
	"context"
	"time"

	"Socialbot/internal/core/publishers"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

type jobService struct {
	repo  Repository
	log   *zap.SugaredLogger
	clock func() time.Time
}

// NewService creates the scheduled job service
func NewService(repo Repository, log *zap.SugaredLogger) Service {
	return &jobService{
		repo:  repo,
		log:   log,
		clock: time.Now,
	}
}

// CreateJob validates and persists a new pending job.
// The target time must be strictly in the future.
func (s *jobService) CreateJob(ctx context.Context, req CreateJobRequest) (*Job, error) {
	now := s.clock().UTC()

	if err := validateContent(req.Content); err != nil {
		return nil, err
	}

	platform := req.Platform
	if platform == "" {
		platform = publishers.PlatformLinkedIn
	}
	if !platform.Valid() {
		return nil, NewValidationError("platform", "must be linkedin or instagram")
	}

	if req.TargetTime.IsZero() {
		return nil, NewValidationError("targetTime", "target time is required")
	}
	if !req.TargetTime.After(now) {
		return nil, NewValidationError("targetTime", "target time must be in the future")
	}

	if err := validateMedia(platform, req.Media); err != nil {
		return nil, err
	}

	job := &Job{
		ID:         uuid.NewString(),
		Content:    req.Content,
		Media:      req.Media,
		Platform:   platform,
		PostID:     req.PostID,
		TargetTime: req.TargetTime.UTC(),
		State:      StatePending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Create(ctx, job); err != nil {
		return nil, errors.Wrap(err, "failed to create scheduled job")
	}

	s.log.Infow("scheduled job created",
		"job_id", job.ID, "platform", job.Platform, "target_time", job.TargetTime)
	return job, nil
}

// GetJob returns a job by ID
func (s *jobService) GetJob(ctx context.Context, id string) (*Job, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, NewValidationError("id", "invalid job ID format")
	}
	return s.repo.GetByID(ctx, id)
}

// ListJobs returns jobs filtered by state
func (s *jobService) ListJobs(ctx context.Context, req ListJobsRequest) ([]*Job, error) {
	for _, st := range req.States {
		if !st.Valid() {
			return nil, NewValidationError("state", "unknown state "+string(st))
		}
	}
	if req.Limit <= 0 {
		req.Limit = defaultListLimit
	}
	if req.Limit > maxListLimit {
		req.Limit = maxListLimit
	}
	if req.Offset < 0 {
		return nil, NewValidationError("offset", "must be non-negative")
	}
	return s.repo.List(ctx, req)
}

// UpdateJob edits content, media, platform or target time of a pending job.
// The repository enforces the pending check again inside the UPDATE so a
// job claimed between the read and the write is never modified.
func (s *jobService) UpdateJob(ctx context.Context, id string, req UpdateJobRequest) (*Job, error) {
	job, err := s.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.State != StatePending {
		return nil, ErrNotEditable
	}

	now := s.clock().UTC()

	if req.Content != nil {
		if err := validateContent(*req.Content); err != nil {
			return nil, err
		}
		job.Content = *req.Content
	}
	if req.Platform != nil {
		if !req.Platform.Valid() {
			return nil, NewValidationError("platform", "must be linkedin or instagram")
		}
		job.Platform = *req.Platform
	}
	if req.ClearMedia {
		job.Media = nil
	} else if req.Media != nil {
		job.Media = req.Media
	}
	if err := validateMedia(job.Platform, job.Media); err != nil {
		return nil, err
	}
	if req.TargetTime != nil {
		if !req.TargetTime.After(now) {
			return nil, NewValidationError("targetTime", "target time must be in the future")
		}
		job.TargetTime = req.TargetTime.UTC()
		// A reschedule replaces any pending retry window
		job.NextAttemptAt = nil
	}
	job.UpdatedAt = now

	if err := s.repo.Update(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// DeleteJob removes a job. Deleting is an explicit user action and does not
// depend on where the job is in its lifecycle.
func (s *jobService) DeleteJob(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return NewValidationError("id", "invalid job ID format")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Infow("scheduled job deleted", "job_id", id)
	return nil
}
