package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"Socialbot/internal/core/posts"
	"Socialbot/internal/core/publishers"

	"github.com/cockroachdb/errors"
)

const postColumns = `
	id, content, status, platform, author, media_url, media_type,
	platform_post_id, scheduled_job_id, scheduled_at, published_at,
	created_at, updated_at
`

type postgresPostRepo struct {
	db *sql.DB
}

// NewPostRepository creates a new PostgreSQL post repository
func NewPostRepository(db *sql.DB) posts.Repository {
	return &postgresPostRepo{db: db}
}

// Create inserts a new post into the posts table
func (r *postgresPostRepo) Create(ctx context.Context, post *posts.Post) error {
	mediaURL, mediaType := mediaColumns(post.Media)

	query := `
		INSERT INTO posts (
			id, content, status, platform, author, media_url, media_type,
			platform_post_id, scheduled_job_id, scheduled_at, published_at,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11,
			$12, $13
		)
	`

	_, err := r.db.ExecContext(ctx, query,
		post.ID, post.Content, string(post.Status), string(post.Platform), post.Author, mediaURL, mediaType,
		nullString(post.PlatformPostID), nullString(post.ScheduledJobID), nullTime(post.ScheduledAt), nullTime(post.PublishedAt),
		post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to insert post")
	}
	return nil
}

// GetByID retrieves a post by ID
func (r *postgresPostRepo) GetByID(ctx context.Context, id string) (*posts.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, posts.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get post")
	}
	return post, nil
}

// List retrieves one page of posts matching filter, newest first, plus the
// total number of matches
func (r *postgresPostRepo) List(ctx context.Context, filter posts.ListFilter) ([]*posts.Post, int, error) {
	where, args := postFilterClause(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM posts` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count posts")
	}

	query := `SELECT ` + postColumns + ` FROM posts` + where +
		` ORDER BY created_at DESC, id` +
		` LIMIT ` + placeholder(len(args)+1) + ` OFFSET ` + placeholder(len(args)+2)
	args = append(args, filter.Limit, filter.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list posts")
	}
	defer func() { _ = rows.Close() }()

	result := []*posts.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan post")
		}
		result = append(result, post)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, "error iterating posts")
	}
	return result, total, nil
}

// Update rewrites every mutable column of a post
func (r *postgresPostRepo) Update(ctx context.Context, post *posts.Post) error {
	mediaURL, mediaType := mediaColumns(post.Media)

	query := `
		UPDATE posts
		SET content = $2, status = $3, platform = $4, media_url = $5, media_type = $6,
		    platform_post_id = $7, scheduled_job_id = $8, scheduled_at = $9,
		    published_at = $10, updated_at = $11
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		post.ID, post.Content, string(post.Status), string(post.Platform), mediaURL, mediaType,
		nullString(post.PlatformPostID), nullString(post.ScheduledJobID), nullTime(post.ScheduledAt),
		nullTime(post.PublishedAt), post.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update post")
	}
	return requireOneRow(result, posts.ErrNotFound)
}

// Delete removes a post; the scheduled_jobs foreign key cascades
func (r *postgresPostRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete post")
	}
	return requireOneRow(result, posts.ErrNotFound)
}

// CountByPlatform groups posts by platform
func (r *postgresPostRepo) CountByPlatform(ctx context.Context, status *posts.Status) (map[publishers.Platform]int, error) {
	query := `SELECT platform, COUNT(*) FROM posts`
	var args []interface{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, string(*status))
	}
	query += ` GROUP BY platform`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count posts by platform")
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[publishers.Platform]int)
	for rows.Next() {
		var platform string
		var n int
		if err := rows.Scan(&platform, &n); err != nil {
			return nil, errors.Wrap(err, "failed to scan post count")
		}
		counts[publishers.Platform(platform)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating post counts")
	}
	return counts, nil
}

// MarkPublished moves a scheduled post to published
func (r *postgresPostRepo) MarkPublished(ctx context.Context, id, platformPostID string, publishedAt time.Time) error {
	query := `
		UPDATE posts
		SET status = 'published', platform_post_id = $2, published_at = $3,
		    scheduled_at = NULL, updated_at = $3
		WHERE id = $1 AND status = 'scheduled'
	`

	result, err := r.db.ExecContext(ctx, query, id, platformPostID, publishedAt)
	if err != nil {
		return errors.Wrap(err, "failed to mark post published")
	}
	return requireOneRow(result, posts.ErrNotFound)
}

// postFilterClause builds the WHERE clause and arguments for a list filter
func postFilterClause(filter posts.ListFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, cond+placeholder(len(args)))
	}

	if filter.Status != nil {
		add("status = ", string(*filter.Status))
	}
	if filter.Platform != nil {
		add("platform = ", string(*filter.Platform))
	}
	if filter.CreatedFrom != nil {
		add("created_at >= ", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		add("created_at < ", *filter.CreatedTo)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanPost(row rowScanner) (*posts.Post, error) {
	var (
		post                           posts.Post
		status, platform               string
		mediaURL, mediaType            sql.NullString
		platformPostID, scheduledJobID sql.NullString
		scheduledAt, publishedAt       sql.NullTime
	)

	err := row.Scan(
		&post.ID, &post.Content, &status, &platform, &post.Author, &mediaURL, &mediaType,
		&platformPostID, &scheduledJobID, &scheduledAt, &publishedAt,
		&post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	post.Status = posts.Status(status)
	post.Platform = publishers.Platform(platform)
	post.Media = mediaFromColumns(mediaURL, mediaType)
	post.PlatformPostID = stringPtr(platformPostID)
	post.ScheduledJobID = stringPtr(scheduledJobID)
	post.ScheduledAt = timePtr(scheduledAt)
	post.PublishedAt = timePtr(publishedAt)

	return &post, nil
}

// requireOneRow maps an update or delete that matched nothing to notFound
func requireOneRow(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to check result")
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
