package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"Socialbot/internal/core/posts"
	"Socialbot/internal/core/publishers"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var postRowColumns = []string{
	"id", "content", "status", "platform", "author", "media_url", "media_type",
	"platform_post_id", "scheduled_job_id", "scheduled_at", "published_at",
	"created_at", "updated_at",
}

func newMockPostRepo(t *testing.T) (posts.Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostRepository(db), mock
}

func TestPostRepo_ListBuildsFilter(t *testing.T) {
	repo, mock := newMockPostRepo(t)
	status := posts.StatusPublished
	platform := publishers.PlatformLinkedIn
	from := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	filter := posts.ListFilter{
		Status:      &status,
		Platform:    &platform,
		CreatedFrom: &from,
		CreatedTo:   &to,
		Page:        2,
		Limit:       10,
	}

	where := regexp.QuoteMeta("WHERE status = $1 AND platform = $2 AND created_at >= $3 AND created_at < $4")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM posts")+" "+where).
		WithArgs("published", "linkedin", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	platformID := "urn:li:share:9"
	mock.ExpectQuery(where+regexp.QuoteMeta(" ORDER BY created_at DESC, id LIMIT $5 OFFSET $6")).
		WithArgs("published", "linkedin", from, to, 10, 10).
		WillReturnRows(sqlmock.NewRows(postRowColumns).
			AddRow("post-1", "hi", "published", "linkedin", "system", nil, nil,
				platformID, nil, nil, from, from, from))

	found, total, err := repo.List(context.Background(), filter)

	require.NoError(t, err)
	assert.Equal(t, 11, total)
	require.Len(t, found, 1)
	assert.Equal(t, posts.StatusPublished, found[0].Status)
	require.NotNil(t, found[0].PlatformPostID)
	assert.Equal(t, platformID, *found[0].PlatformPostID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepo_ListWithoutFilter(t *testing.T) {
	repo, mock := newMockPostRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM posts")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $1 OFFSET $2")).
		WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows(postRowColumns))

	found, total, err := repo.List(context.Background(), posts.ListFilter{Page: 1, Limit: 10})

	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepo_CountByPlatform(t *testing.T) {
	repo, mock := newMockPostRepo(t)
	status := posts.StatusDraft

	mock.ExpectQuery(regexp.QuoteMeta("SELECT platform, COUNT(*) FROM posts WHERE status = $1 GROUP BY platform")).
		WithArgs("draft").
		WillReturnRows(sqlmock.NewRows([]string{"platform", "count"}).
			AddRow("linkedin", 3).
			AddRow("instagram", 1))

	counts, err := repo.CountByPlatform(context.Background(), &status)

	require.NoError(t, err)
	assert.Equal(t, map[publishers.Platform]int{
		publishers.PlatformLinkedIn:  3,
		publishers.PlatformInstagram: 1,
	}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepo_MarkPublishedOnlyScheduled(t *testing.T) {
	repo, mock := newMockPostRepo(t)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND status = 'scheduled'")).
		WithArgs("post-1", "urn:li:share:1", at).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkPublished(context.Background(), "post-1", "urn:li:share:1", at)
	assert.ErrorIs(t, err, posts.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepo_GetByID(t *testing.T) {
	repo, mock := newMockPostRepo(t)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM posts WHERE id = $1")).
		WithArgs("post-1").
		WillReturnRows(sqlmock.NewRows(postRowColumns).
			AddRow("post-1", "hi", "scheduled", "instagram", "alice", "https://cdn.example.com/v.mp4", "video",
				nil, "job-1", at, nil, at, at))

	post, err := repo.GetByID(context.Background(), "post-1")

	require.NoError(t, err)
	assert.Equal(t, posts.StatusScheduled, post.Status)
	require.NotNil(t, post.Media)
	assert.Equal(t, publishers.MediaVideo, post.Media.Type)
	require.NotNil(t, post.ScheduledJobID)
	assert.Equal(t, "job-1", *post.ScheduledJobID)
	assert.Nil(t, post.PublishedAt)
}

func TestPostRepo_DeleteMissing(t *testing.T) {
	repo, mock := newMockPostRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM posts WHERE id = $1")).
		WithArgs("post-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), "post-1"), posts.ErrNotFound)
}
