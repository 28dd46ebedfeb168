package posts

import (
	"context"
	"math"
	"strings"
	"time"

	"Socialbot/internal/core/publishers"
	"Socialbot/internal/core/scheduled"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultAuthor    = "system"
	defaultPageLimit = 10
	maxPageLimit     = 100

	defaultPublishTimeout = 30 * time.Second
)

type postService struct {
	repo           Repository
	jobs           scheduled.Service
	publishers     PublisherSource
	log            *zap.SugaredLogger
	clock          func() time.Time
	publishTimeout time.Duration
}

// NewPostService creates the post service. publishTimeout bounds every
// immediate publish or delete call to a platform; <= 0 uses 30s.
func NewPostService(repo Repository, jobs scheduled.Service, pubs PublisherSource, publishTimeout time.Duration, log *zap.SugaredLogger) Service {
	if publishTimeout <= 0 {
		publishTimeout = defaultPublishTimeout
	}
	return &postService{
		repo:           repo,
		jobs:           jobs,
		publishers:     pubs,
		log:            log,
		clock:          time.Now,
		publishTimeout: publishTimeout,
	}
}

// CreatePost validates the request and, depending on status, saves a draft,
// publishes to the platform right away or hands the post to the scheduler
func (s *postService) CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error) {
	now := s.clock().UTC()

	// 1. Validate content and platform
	if strings.TrimSpace(req.Content) == "" {
		return nil, NewValidationError("content", "content is required")
	}
	if req.Platform == "" {
		return nil, NewValidationError("platform", "platform is required (linkedin or instagram)")
	}
	if !req.Platform.Valid() {
		return nil, NewValidationError("platform", "must be linkedin or instagram")
	}

	// 2. Resolve the status; a schedule time always means scheduled
	status := req.Status
	if status == "" {
		status = StatusDraft
	}
	if req.ScheduledAt != nil {
		status = StatusScheduled
	}
	if !status.Valid() {
		return nil, NewValidationError("status", "must be one of draft, scheduled, published")
	}
	if status == StatusScheduled {
		if req.ScheduledAt == nil {
			return nil, NewValidationError("scheduledAt", "a scheduled post requires scheduledAt")
		}
		if !req.ScheduledAt.After(now) {
			return nil, NewValidationError("scheduledAt", "scheduledAt must be in the future")
		}
	}
	if err := validateMedia(req.Platform, status, req.Media); err != nil {
		return nil, err
	}

	author := strings.TrimSpace(req.Author)
	if author == "" {
		author = defaultAuthor
	}

	post := &Post{
		ID:        uuid.NewString(),
		Content:   req.Content,
		Author:    author,
		Status:    status,
		Platform:  req.Platform,
		Media:     req.Media,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.ScheduledAt != nil {
		at := req.ScheduledAt.UTC()
		post.ScheduledAt = &at
	}

	// 3. Immediate posts go to the platform before they are saved, so a
	// rejected publish leaves nothing behind
	if status == StatusPublished {
		if err := s.publishNow(ctx, post); err != nil {
			return nil, err
		}
	}

	// 4. Persist
	if err := s.repo.Create(ctx, post); err != nil {
		if post.PlatformPostID != nil {
			// The platform has a post we have no record of; take it back down
			s.log.Errorw("published but failed to save post",
				"post_id", post.ID, "platform", post.Platform,
				"platform_post_id", *post.PlatformPostID, "error", err)
			s.deleteRemote(ctx, post)
		}
		return nil, errors.Wrap(err, "failed to create post")
	}

	// 5. Scheduled posts get a job linked back to the post
	if status == StatusScheduled {
		if err := s.schedule(ctx, post); err != nil {
			if delErr := s.repo.Delete(ctx, post.ID); delErr != nil {
				s.log.Errorw("failed to remove post after scheduling error",
					"post_id", post.ID, "error", delErr)
			}
			return nil, err
		}
		if err := s.repo.Update(ctx, post); err != nil {
			s.discardJob(ctx, post)
			if delErr := s.repo.Delete(ctx, post.ID); delErr != nil {
				s.log.Errorw("failed to remove post after link error",
					"post_id", post.ID, "error", delErr)
			}
			return nil, errors.Wrap(err, "failed to link scheduled job")
		}
	}

	s.log.Infow("post created",
		"post_id", post.ID, "status", post.Status, "platform", post.Platform)
	return post, nil
}

// GetPost returns a post by ID
func (s *postService) GetPost(ctx context.Context, id string) (*Post, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, NewValidationError("id", "invalid post ID format")
	}
	return s.repo.GetByID(ctx, id)
}

// ListPosts returns one page of posts, newest first
func (s *postService) ListPosts(ctx context.Context, filter ListFilter) (*ListResult, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultPageLimit
	}
	if filter.Limit > maxPageLimit {
		filter.Limit = maxPageLimit
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, NewValidationError("status", "must be one of draft, scheduled, published")
	}
	if filter.Platform != nil && !filter.Platform.Valid() {
		return nil, NewValidationError("platform", "must be linkedin or instagram")
	}

	found, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list posts")
	}

	return &ListResult{
		Posts: found,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
		Pages: int(math.Ceil(float64(total) / float64(filter.Limit))),
	}, nil
}

// UpdatePost applies edits and a possible status change.
// Published posts are final: the platform already has them.
func (s *postService) UpdatePost(ctx context.Context, id string, req UpdatePostRequest) (*Post, error) {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.Status == StatusPublished {
		return nil, ErrNotEditable
	}

	now := s.clock().UTC()
	oldStatus := post.Status
	oldJobID := post.ScheduledJobID

	// 1. Field edits
	if req.Content != nil {
		if strings.TrimSpace(*req.Content) == "" {
			return nil, NewValidationError("content", "post content cannot be empty")
		}
		post.Content = *req.Content
	}
	if req.Platform != nil {
		if !req.Platform.Valid() {
			return nil, NewValidationError("platform", "must be linkedin or instagram")
		}
		post.Platform = *req.Platform
	}
	if req.Media != nil {
		post.Media = req.Media
	}

	// 2. Target status
	newStatus := oldStatus
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, NewValidationError("status", "must be one of draft, scheduled, published")
		}
		newStatus = *req.Status
	} else if req.ScheduledAt != nil {
		newStatus = StatusScheduled
	}
	if req.ScheduledAt != nil && newStatus != StatusScheduled {
		return nil, NewValidationError("scheduledAt", "scheduledAt can only be set on a scheduled post")
	}
	if req.ScheduledAt != nil {
		if !req.ScheduledAt.After(now) {
			return nil, NewValidationError("scheduledAt", "scheduledAt must be in the future")
		}
		at := req.ScheduledAt.UTC()
		post.ScheduledAt = &at
	}
	if newStatus == StatusScheduled && post.ScheduledAt == nil {
		return nil, NewValidationError("scheduledAt", "a scheduled post requires scheduledAt")
	}
	if err := validateMedia(post.Platform, newStatus, post.Media); err != nil {
		return nil, err
	}

	// 3. Keep the scheduled job in step with the post
	switch newStatus {
	case StatusDraft:
		if err := s.cancelJob(ctx, post); err != nil {
			return nil, err
		}
		post.ScheduledAt = nil

	case StatusScheduled:
		if oldStatus == StatusScheduled && post.ScheduledJobID != nil {
			if err := s.reschedule(ctx, post, req.ScheduledAt != nil); err != nil {
				return nil, err
			}
		} else {
			if !post.ScheduledAt.After(now) {
				return nil, NewValidationError("scheduledAt", "scheduledAt must be in the future")
			}
			if err := s.schedule(ctx, post); err != nil {
				return nil, err
			}
		}

	case StatusPublished:
		hadJob := post.ScheduledJobID != nil
		if err := s.cancelJob(ctx, post); err != nil {
			return nil, err
		}
		if err := s.publishNow(ctx, post); err != nil {
			if hadJob {
				// The job is gone; keep the post as a draft rather than
				// leave it scheduled with nothing to publish it
				post.Status = StatusDraft
				post.ScheduledAt = nil
				post.UpdatedAt = now
				if saveErr := s.repo.Update(ctx, post); saveErr != nil {
					s.log.Errorw("failed to save post after publish error", "post_id", post.ID, "error", saveErr)
				}
			}
			return nil, err
		}
	}

	post.Status = newStatus
	post.UpdatedAt = now

	if err := s.repo.Update(ctx, post); err != nil {
		switch {
		case post.ScheduledJobID != nil && (oldJobID == nil || *oldJobID != *post.ScheduledJobID):
			// The saved post does not know about this job
			s.discardJob(ctx, post)
		case newStatus == StatusPublished && post.PlatformPostID != nil:
			s.log.Errorw("published but failed to save post",
				"post_id", post.ID, "platform", post.Platform,
				"platform_post_id", *post.PlatformPostID, "error", err)
		}
		return nil, errors.Wrap(err, "failed to update post")
	}

	s.log.Infow("post updated",
		"post_id", post.ID, "from", oldStatus, "to", newStatus)
	return post, nil
}

// DeletePost removes a post. For a published post the platform delete is
// attempted first; its failure is logged and does not block the local delete.
func (s *postService) DeletePost(ctx context.Context, id string) error {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return err
	}

	if post.Status == StatusPublished && post.PlatformPostID != nil {
		s.deleteRemote(ctx, post)
	}

	if err := s.repo.Delete(ctx, post.ID); err != nil {
		return err
	}

	s.log.Infow("post deleted", "post_id", post.ID)
	return nil
}

// CountPosts counts posts per platform
func (s *postService) CountPosts(ctx context.Context, status *Status) (*CountResult, error) {
	if status != nil && !status.Valid() {
		return nil, NewValidationError("status", "must be one of draft, scheduled, published")
	}

	breakdown, err := s.repo.CountByPlatform(ctx, status)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count posts")
	}

	result := &CountResult{Breakdown: breakdown}
	for _, n := range breakdown {
		result.TotalCount += n
	}
	return result, nil
}

// LinkPublished is called by the poller once a post's job is published
func (s *postService) LinkPublished(ctx context.Context, postID, platformPostID string, publishedAt time.Time) error {
	if err := s.repo.MarkPublished(ctx, postID, platformPostID, publishedAt); err != nil {
		return err
	}
	s.log.Infow("scheduled post published",
		"post_id", postID, "platform_post_id", platformPostID)
	return nil
}

// publishNow sends the post to its platform and records the result on it
func (s *postService) publishNow(ctx context.Context, post *Post) error {
	publisher, err := s.publishers.Get(post.Platform)
	if err != nil {
		return NewValidationError("platform", err.Error())
	}

	callCtx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()

	platformPostID, err := publisher.Publish(callCtx, post.Content, post.Media)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && !publishers.IsTransient(err) {
			err = publishers.NewTimeoutError(post.Platform, err)
		}
		s.log.Warnw("immediate publish failed", "post_id", post.ID, "platform", post.Platform, "error", err)
		return errors.Wrapf(err, "failed to publish to %s", post.Platform)
	}

	publishedAt := s.clock().UTC()
	post.PlatformPostID = &platformPostID
	post.PublishedAt = &publishedAt
	post.ScheduledAt = nil
	return nil
}

// schedule creates the job that will publish post at its ScheduledAt
func (s *postService) schedule(ctx context.Context, post *Post) error {
	postID := post.ID
	job, err := s.jobs.CreateJob(ctx, scheduled.CreateJobRequest{
		TargetTime: *post.ScheduledAt,
		Media:      post.Media,
		PostID:     &postID,
		Content:    post.Content,
		Platform:   post.Platform,
	})
	if err != nil {
		return err
	}
	post.ScheduledJobID = &job.ID
	return nil
}

// reschedule pushes content and time edits to the post's pending job
func (s *postService) reschedule(ctx context.Context, post *Post, timeChanged bool) error {
	req := scheduled.UpdateJobRequest{
		Content:    &post.Content,
		Platform:   &post.Platform,
		Media:      post.Media,
		ClearMedia: post.Media == nil,
	}
	if timeChanged {
		req.TargetTime = post.ScheduledAt
	}

	_, err := s.jobs.UpdateJob(ctx, *post.ScheduledJobID, req)
	if errors.Is(err, scheduled.ErrNotEditable) {
		return ErrNotEditable
	}
	if scheduled.IsNotFound(err) {
		// The job was removed out from under the post; schedule afresh
		return s.schedule(ctx, post)
	}
	return err
}

// cancelJob removes a post's job if it has not been claimed yet
func (s *postService) cancelJob(ctx context.Context, post *Post) error {
	if post.ScheduledJobID == nil {
		return nil
	}

	job, err := s.jobs.GetJob(ctx, *post.ScheduledJobID)
	if scheduled.IsNotFound(err) {
		post.ScheduledJobID = nil
		return nil
	}
	if err != nil {
		return err
	}
	if job.State != scheduled.StatePending {
		return ErrNotEditable
	}

	if err := s.jobs.DeleteJob(ctx, job.ID); err != nil && !scheduled.IsNotFound(err) {
		return err
	}
	post.ScheduledJobID = nil
	return nil
}

// discardJob deletes a job created for a post that could not be saved
func (s *postService) discardJob(ctx context.Context, post *Post) {
	if post.ScheduledJobID == nil {
		return
	}
	if err := s.jobs.DeleteJob(ctx, *post.ScheduledJobID); err != nil && !scheduled.IsNotFound(err) {
		s.log.Errorw("failed to remove orphaned scheduled job",
			"post_id", post.ID, "job_id", *post.ScheduledJobID, "error", err)
	}
}

func (s *postService) deleteRemote(ctx context.Context, post *Post) {
	log := s.log.With("post_id", post.ID, "platform", post.Platform, "platform_post_id", *post.PlatformPostID)

	publisher, err := s.publishers.Get(post.Platform)
	if err != nil {
		log.Warnw("no publisher to delete remote post", "error", err)
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()

	switch err := publisher.DeleteByPlatformID(callCtx, *post.PlatformPostID); {
	case err == nil:
		log.Infow("remote post deleted")
	case errors.Is(err, publishers.ErrPostNotFound):
		log.Infow("remote post already gone")
	case errors.Is(err, publishers.ErrDeleteUnsupported):
		log.Infow("platform cannot delete posts; removing local copy only")
	default:
		log.Warnw("could not delete remote post", "error", err)
	}
}

// validateMedia checks the media reference; Instagram cannot publish
// without an image or video
func validateMedia(platform publishers.Platform, status Status, media *publishers.Media) error {
	if err := media.Validate(); err != nil {
		return NewValidationError("media", err.Error())
	}
	if platform == publishers.PlatformInstagram && status != StatusDraft && media == nil {
		return NewValidationError("media", "instagram posts require an image or video")
	}
	return nil
}
