package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"Socialbot/internal/core/publishers"
	"Socialbot/internal/core/scheduled"

	"github.com/cockroachdb/errors"
	"github.com/lib/pq"
)

const scheduledJobColumns = `
	id, content, media_url, media_type, platform, post_id,
	state, attempts, target_time, next_attempt_at, claimed_at,
	published_at, platform_post_id, last_error, created_at, updated_at
`

type postgresScheduledJobRepo struct {
	db *sql.DB
}

// NewScheduledJobRepository creates a new PostgreSQL scheduled job repository
func NewScheduledJobRepository(db *sql.DB) scheduled.Repository {
	return &postgresScheduledJobRepo{db: db}
}

// Create inserts a new pending job
func (r *postgresScheduledJobRepo) Create(ctx context.Context, job *scheduled.Job) error {
	mediaURL, mediaType := mediaColumns(job.Media)

	query := `
		INSERT INTO scheduled_jobs (
			id, content, media_url, media_type, platform, post_id,
			state, attempts, target_time, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, 0, $8, $9, $10
		)
	`

	_, err := r.db.ExecContext(ctx, query,
		job.ID, job.Content, mediaURL, mediaType, string(job.Platform), nullString(job.PostID),
		string(scheduled.StatePending), job.TargetTime, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return scheduled.NewValidationError("postId", "post not found")
		}
		return errors.Wrap(err, "failed to insert scheduled job")
	}
	return nil
}

// GetByID retrieves a job by ID
func (r *postgresScheduledJobRepo) GetByID(ctx context.Context, id string) (*scheduled.Job, error) {
	query := `SELECT ` + scheduledJobColumns + ` FROM scheduled_jobs WHERE id = $1`

	job, err := scanScheduledJob(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, scheduled.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get scheduled job")
	}
	return job, nil
}

// List returns jobs, latest target time first
func (r *postgresScheduledJobRepo) List(ctx context.Context, req scheduled.ListJobsRequest) ([]*scheduled.Job, error) {
	var states []string
	for _, st := range req.States {
		states = append(states, string(st))
	}

	query := `
		SELECT ` + scheduledJobColumns + `
		FROM scheduled_jobs
		WHERE ($1::text[] IS NULL OR state = ANY($1))
		ORDER BY target_time DESC, id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(states), req.Limit, req.Offset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list scheduled jobs")
	}
	return collectScheduledJobs(rows)
}

// Update rewrites the editable fields. The state check lives in the WHERE
// clause so a job claimed after the caller read it is left untouched.
func (r *postgresScheduledJobRepo) Update(ctx context.Context, job *scheduled.Job) error {
	mediaURL, mediaType := mediaColumns(job.Media)

	query := `
		UPDATE scheduled_jobs
		SET content = $2, media_url = $3, media_type = $4, platform = $5,
		    target_time = $6, next_attempt_at = $7, updated_at = $8
		WHERE id = $1 AND state = 'pending'
	`

	result, err := r.db.ExecContext(ctx, query,
		job.ID, job.Content, mediaURL, mediaType, string(job.Platform),
		job.TargetTime, nullTime(job.NextAttemptAt), job.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update scheduled job")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to check update result")
	}
	if rowsAffected == 0 {
		exists, err := r.exists(ctx, job.ID)
		if err != nil {
			return err
		}
		if !exists {
			return scheduled.ErrNotFound
		}
		return scheduled.ErrNotEditable
	}
	return nil
}

// Delete removes a job in any state
func (r *postgresScheduledJobRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM scheduled_jobs WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete scheduled job")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to check delete result")
	}
	if rowsAffected == 0 {
		return scheduled.ErrNotFound
	}
	return nil
}

// FindDue returns pending jobs whose target time and retry window have passed
func (r *postgresScheduledJobRepo) FindDue(ctx context.Context, now time.Time, limit int) ([]*scheduled.Job, error) {
	query := `
		SELECT ` + scheduledJobColumns + `
		FROM scheduled_jobs
		WHERE state = 'pending'
		  AND target_time <= $1
		  AND (next_attempt_at IS NULL OR next_attempt_at <= $1)
		ORDER BY target_time ASC, id
	`
	args := []interface{}{now}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find due jobs")
	}
	return collectScheduledJobs(rows)
}

// MarkPublishing claims a job that is still pending and due at now.
// Exactly one concurrent caller gets the claimed row back; everyone else,
// and any caller racing an edit that pushed the job into the future, gets nil.
func (r *postgresScheduledJobRepo) MarkPublishing(ctx context.Context, id string, now time.Time) (*scheduled.Job, error) {
	query := `
		UPDATE scheduled_jobs
		SET state = 'publishing', attempts = attempts + 1,
		    claimed_at = $2, next_attempt_at = NULL, updated_at = $2
		WHERE id = $1 AND state = 'pending'
		  AND target_time <= $2
		  AND (next_attempt_at IS NULL OR next_attempt_at <= $2)
		RETURNING ` + scheduledJobColumns

	job, err := scanScheduledJob(r.db.QueryRowContext(ctx, query, id, now))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to claim scheduled job")
	}
	return job, nil
}

// MarkPublished records a successful publish
func (r *postgresScheduledJobRepo) MarkPublished(ctx context.Context, id, platformPostID string, now time.Time) error {
	query := `
		UPDATE scheduled_jobs
		SET state = 'published', platform_post_id = $2, published_at = $3,
		    claimed_at = NULL, last_error = NULL, updated_at = $3
		WHERE id = $1 AND state = 'publishing'
	`
	return r.transition(ctx, id, query, id, platformPostID, now)
}

// MarkFailed records a permanent failure
func (r *postgresScheduledJobRepo) MarkFailed(ctx context.Context, id, reason string, now time.Time) error {
	query := `
		UPDATE scheduled_jobs
		SET state = 'failed', last_error = $2, claimed_at = NULL, updated_at = $3
		WHERE id = $1 AND state = 'publishing'
	`
	return r.transition(ctx, id, query, id, reason, now)
}

// MarkRetry releases a claim so the job becomes due again at nextAttemptAt
func (r *postgresScheduledJobRepo) MarkRetry(ctx context.Context, id, reason string, nextAttemptAt, now time.Time) error {
	query := `
		UPDATE scheduled_jobs
		SET state = 'pending', last_error = $2, next_attempt_at = $3,
		    claimed_at = NULL, updated_at = $4
		WHERE id = $1 AND state = 'publishing'
	`
	return r.transition(ctx, id, query, id, reason, nextAttemptAt, now)
}

// FindStale returns publishing jobs claimed before claimedBefore
func (r *postgresScheduledJobRepo) FindStale(ctx context.Context, claimedBefore time.Time) ([]*scheduled.Job, error) {
	query := `
		SELECT ` + scheduledJobColumns + `
		FROM scheduled_jobs
		WHERE state = 'publishing' AND claimed_at < $1
		ORDER BY claimed_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, claimedBefore)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find stale claims")
	}
	return collectScheduledJobs(rows)
}

// transition runs a conditional state update and reports why nothing changed
func (r *postgresScheduledJobRepo) transition(ctx context.Context, id, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrapf(err, "failed to update scheduled job %s", id)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to check update result")
	}
	if rowsAffected == 1 {
		return nil
	}

	exists, err := r.exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return scheduled.ErrNotFound
	}
	return errors.Wrapf(scheduled.ErrInvalidTransition, "job %s is not publishing", id)
}

func (r *postgresScheduledJobRepo) exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM scheduled_jobs WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "failed to check scheduled job existence")
	}
	return exists, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanScheduledJob(row rowScanner) (*scheduled.Job, error) {
	var (
		job                           scheduled.Job
		platform, state               string
		mediaURL, mediaType           sql.NullString
		postID, platformPostID, lastE sql.NullString
		nextAttempt, claimed, publish sql.NullTime
	)

	err := row.Scan(
		&job.ID, &job.Content, &mediaURL, &mediaType, &platform, &postID,
		&state, &job.Attempts, &job.TargetTime, &nextAttempt, &claimed,
		&publish, &platformPostID, &lastE, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	job.Platform = publishers.Platform(platform)
	job.State = scheduled.State(state)
	job.Media = mediaFromColumns(mediaURL, mediaType)
	job.PostID = stringPtr(postID)
	job.PlatformPostID = stringPtr(platformPostID)
	job.LastError = stringPtr(lastE)
	job.NextAttemptAt = timePtr(nextAttempt)
	job.ClaimedAt = timePtr(claimed)
	job.PublishedAt = timePtr(publish)

	return &job, nil
}

func collectScheduledJobs(rows *sql.Rows) ([]*scheduled.Job, error) {
	defer func() { _ = rows.Close() }()

	jobs := []*scheduled.Job{}
	for rows.Next() {
		job, err := scanScheduledJob(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan scheduled job")
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating scheduled jobs")
	}
	return jobs, nil
}

// Column helpers shared by the repositories

func mediaColumns(m *publishers.Media) (sql.NullString, sql.NullString) {
	if m == nil {
		return sql.NullString{}, sql.NullString{}
	}
	return sql.NullString{String: m.URL, Valid: true}, sql.NullString{String: string(m.Type), Valid: true}
}

func mediaFromColumns(url, mediaType sql.NullString) *publishers.Media {
	if !url.Valid {
		return nil
	}
	return &publishers.Media{URL: url.String, Type: publishers.MediaType(mediaType.String)}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// isForeignKeyViolation reports a pq foreign_key_violation (23503)
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}

// placeholder returns the n-th positional parameter ($1, $2, ...)
func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}
