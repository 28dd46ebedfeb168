// Package poller drives scheduled jobs from pending to a terminal state.
//
// A tick fetches due jobs, claims each one with an atomic conditional update,
// calls the platform publisher and records the outcome. Ticks hold no state
// between runs: everything needed to resume after a restart lives in the
// scheduled_jobs table.
package poller

import (
	"context"
	"fmt"
	"time"

	"Socialbot/internal/core/publishers"
	"Socialbot/internal/core/scheduled"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Store is the subset of the scheduled job repository the poller needs
type Store interface {
	FindDue(ctx context.Context, now time.Time, limit int) ([]*scheduled.Job, error)
	MarkPublishing(ctx context.Context, id string, now time.Time) (*scheduled.Job, error)
	MarkPublished(ctx context.Context, id, platformPostID string, now time.Time) error
	MarkFailed(ctx context.Context, id, reason string, now time.Time) error
	MarkRetry(ctx context.Context, id, reason string, nextAttemptAt, now time.Time) error
	FindStale(ctx context.Context, claimedBefore time.Time) ([]*scheduled.Job, error)
}

// PublisherSource resolves the publisher for a job's platform
type PublisherSource interface {
	Get(platform publishers.Platform) (publishers.Publisher, error)
}

// PostLinker is notified when a job that belongs to a post has been published
type PostLinker interface {
	LinkPublished(ctx context.Context, postID, platformPostID string, publishedAt time.Time) error
}

// Config tunes a Poller
type Config struct {
	Retry          RetryPolicy
	PublishTimeout time.Duration // per publisher call
	StaleAfter     time.Duration // claims older than this are recovered; 0 disables
	BatchSize      int           // max due jobs per tick; 0 means all
}

// DefaultConfig returns the production defaults
func DefaultConfig() Config {
	return Config{
		Retry:          DefaultRetryPolicy(),
		PublishTimeout: 30 * time.Second,
		StaleAfter:     10 * time.Minute,
		BatchSize:      100,
	}
}

// Outcome is what a tick did with one job
type Outcome string

const (
	OutcomePublished Outcome = "published"
	OutcomeRetry     Outcome = "retry"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped" // claimed elsewhere or no longer due
	OutcomeError     Outcome = "error"   // store error, job left for a later tick
)

// TickResult summarizes one tick
type TickResult struct {
	Outcomes  map[string]Outcome
	Due       int
	Recovered int
	Published int
	Retried   int
	Failed    int
	Skipped   int
	Errors    int
}

func (r *TickResult) record(jobID string, o Outcome) {
	r.Outcomes[jobID] = o
	switch o {
	case OutcomePublished:
		r.Published++
	case OutcomeRetry:
		r.Retried++
	case OutcomeFailed:
		r.Failed++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeError:
		r.Errors++
	}
}

// Poller runs publish ticks. It is safe to call Tick from several goroutines
// or processes at once; the store's claim guarantees one publish per job.
type Poller struct {
	store      Store
	publishers PublisherSource
	linker     PostLinker
	log        *zap.SugaredLogger
	clock      func() time.Time
	cfg        Config
}

// New creates a poller. linker may be nil when jobs are never linked to posts.
func New(store Store, pubs PublisherSource, linker PostLinker, cfg Config, log *zap.SugaredLogger) *Poller {
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = DefaultConfig().PublishTimeout
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryPolicy()
	}
	return &Poller{
		store:      store,
		publishers: pubs,
		linker:     linker,
		cfg:        cfg,
		log:        log,
		clock:      time.Now,
	}
}

// Tick runs one poll-and-publish cycle against the jobs due at now.
// Per-job failures are logged and recorded, never returned; the error
// result only reports that due jobs could not be fetched at all.
func (p *Poller) Tick(ctx context.Context, now time.Time) (*TickResult, error) {
	result := &TickResult{Outcomes: make(map[string]Outcome)}

	if p.cfg.StaleAfter > 0 {
		result.Recovered = p.recoverStale(ctx, now)
	}

	jobs, err := p.store.FindDue(ctx, now, p.cfg.BatchSize)
	if err != nil {
		return result, errors.Wrap(err, "failed to fetch due jobs")
	}
	result.Due = len(jobs)

	if len(jobs) == 0 {
		p.log.Debugw("no scheduled jobs due", "now", now)
		return result, nil
	}

	p.log.Infow("processing due jobs", "count", len(jobs), "now", now)

	for _, job := range jobs {
		result.record(job.ID, p.processJob(ctx, job, now))
	}

	p.log.Infow("tick complete",
		"due", result.Due,
		"published", result.Published,
		"retried", result.Retried,
		"failed", result.Failed,
		"skipped", result.Skipped,
		"errors", result.Errors,
		"recovered", result.Recovered,
	)
	return result, nil
}

// processJob claims and publishes one job. A panic inside a publisher is
// contained here so the rest of the tick still runs.
func (p *Poller) processJob(ctx context.Context, job *scheduled.Job, now time.Time) (outcome Outcome) {
	jobLog := p.log.With("job_id", job.ID, "platform", job.Platform)

	defer func() {
		if r := recover(); r != nil {
			jobLog.Errorw("panic while processing job", "panic", r)
			outcome = OutcomeError
		}
	}()

	claimed, err := p.store.MarkPublishing(ctx, job.ID, now)
	if err != nil {
		jobLog.Errorw("failed to claim job", "error", err)
		return OutcomeError
	}
	if claimed == nil {
		jobLog.Debugw("job skipped", "reason", (&scheduled.ClaimConflictError{JobID: job.ID}).Error())
		return OutcomeSkipped
	}

	// The fetched snapshot may predate an edit or another poller's retry;
	// everything from here on uses the row as claimed
	job = claimed
	attempts := job.Attempts

	platformPostID, err := p.publish(ctx, job)
	if err != nil {
		return p.recordFailure(ctx, jobLog, job, attempts, err)
	}

	publishedAt := p.clock().UTC()
	if err := p.store.MarkPublished(ctx, job.ID, platformPostID, publishedAt); err != nil {
		// The platform has the post; leave the claim for stale recovery
		// rather than risk publishing it twice.
		jobLog.Errorw("published but failed to record result",
			"platform_post_id", platformPostID, "error", err)
		return OutcomeError
	}

	jobLog.Infow("job published", "platform_post_id", platformPostID, "attempt", attempts)

	if job.PostID != nil && p.linker != nil {
		if err := p.linker.LinkPublished(ctx, *job.PostID, platformPostID, publishedAt); err != nil {
			jobLog.Warnw("failed to mark linked post as published", "post_id", *job.PostID, "error", err)
		}
	}
	return OutcomePublished
}

// publish calls the platform under the per-call timeout
func (p *Poller) publish(ctx context.Context, job *scheduled.Job) (string, error) {
	publisher, err := p.publishers.Get(job.Platform)
	if err != nil {
		return "", err
	}

	callCtx, cancel := context.WithTimeout(ctx, p.cfg.PublishTimeout)
	defer cancel()

	platformPostID, err := publisher.Publish(callCtx, job.Content, job.Media)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && !publishers.IsTransient(err) {
			return "", publishers.NewTimeoutError(job.Platform, err)
		}
		return "", err
	}
	if platformPostID == "" {
		return "", publishers.NewTransientError(job.Platform, 0, errors.New("publisher returned an empty post id"))
	}
	return platformPostID, nil
}

// recordFailure applies the retry policy to a failed attempt
func (p *Poller) recordFailure(ctx context.Context, jobLog *zap.SugaredLogger, job *scheduled.Job, attempts int, cause error) Outcome {
	now := p.clock().UTC()
	reason := cause.Error()

	switch {
	case publishers.IsDuplicateContent(cause):
		jobLog.Warnw("duplicate content rejected by platform; job failed", "error", cause)
		if err := p.store.MarkFailed(ctx, job.ID, reason, now); err != nil {
			jobLog.Errorw("failed to record job failure", "error", err)
			return OutcomeError
		}
		return OutcomeFailed

	case p.cfg.Retry.Exhausted(attempts):
		reason = fmt.Sprintf("giving up after %d attempts: %s", attempts, reason)
		jobLog.Errorw("job failed permanently", "attempts", attempts, "error", cause)
		if err := p.store.MarkFailed(ctx, job.ID, reason, now); err != nil {
			jobLog.Errorw("failed to record job failure", "error", err)
			return OutcomeError
		}
		return OutcomeFailed

	default:
		nextAttemptAt := now.Add(p.cfg.Retry.Backoff(attempts))
		jobLog.Warnw("publish failed; will retry",
			"attempt", attempts, "next_attempt_at", nextAttemptAt, "error", cause)
		if err := p.store.MarkRetry(ctx, job.ID, reason, nextAttemptAt, now); err != nil {
			jobLog.Errorw("failed to schedule retry", "error", err)
			return OutcomeError
		}
		return OutcomeRetry
	}
}

// recoverStale releases jobs whose claim outlived StaleAfter. The publish
// result of such a claim is unknown, so it counts as a transient failure.
func (p *Poller) recoverStale(ctx context.Context, now time.Time) int {
	stale, err := p.store.FindStale(ctx, now.Add(-p.cfg.StaleAfter))
	if err != nil {
		p.log.Warnw("failed to look up stale claims", "error", err)
		return 0
	}

	recovered := 0
	for _, job := range stale {
		jobLog := p.log.With("job_id", job.ID, "platform", job.Platform)
		cause := publishers.NewTimeoutError(job.Platform, errors.Newf("claim older than %s", p.cfg.StaleAfter))
		if o := p.recordFailure(ctx, jobLog, job, job.Attempts, cause); o != OutcomeError {
			recovered++
		}
	}
	return recovered
}
