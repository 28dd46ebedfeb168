package posts

import (
	"context"
	"testing"
	"time"

	"Socialbot/internal/core/publishers"
	"Socialbot/internal/core/scheduled"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Create(ctx context.Context, post *Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *mockRepository) GetByID(ctx context.Context, id string) (*Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Post), args.Error(1)
}

func (m *mockRepository) List(ctx context.Context, filter ListFilter) ([]*Post, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*Post), args.Int(1), args.Error(2)
}

func (m *mockRepository) Update(ctx context.Context, post *Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *mockRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockRepository) CountByPlatform(ctx context.Context, status *Status) (map[publishers.Platform]int, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[publishers.Platform]int), args.Error(1)
}

func (m *mockRepository) MarkPublished(ctx context.Context, id, platformPostID string, publishedAt time.Time) error {
	args := m.Called(ctx, id, platformPostID, publishedAt)
	return args.Error(0)
}

type mockJobService struct {
	mock.Mock
}

func (m *mockJobService) CreateJob(ctx context.Context, req scheduled.CreateJobRequest) (*scheduled.Job, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scheduled.Job), args.Error(1)
}

func (m *mockJobService) GetJob(ctx context.Context, id string) (*scheduled.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scheduled.Job), args.Error(1)
}

func (m *mockJobService) ListJobs(ctx context.Context, req scheduled.ListJobsRequest) ([]*scheduled.Job, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*scheduled.Job), args.Error(1)
}

func (m *mockJobService) UpdateJob(ctx context.Context, id string, req scheduled.UpdateJobRequest) (*scheduled.Job, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scheduled.Job), args.Error(1)
}

func (m *mockJobService) DeleteJob(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, content string, media *publishers.Media) (string, error) {
	args := m.Called(ctx, content, media)
	return args.String(0), args.Error(1)
}

func (m *mockPublisher) DeleteByPlatformID(ctx context.Context, platformPostID string) error {
	args := m.Called(ctx, platformPostID)
	return args.Error(0)
}

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

const (
	testPostID = "6f1c7d2e-8a4b-4c1d-9e2f-3a4b5c6d7e8f"
	testJobID  = "0b9e6a3c-1d2f-4e5a-8b7c-9d0e1f2a3b4c"
)

type testDeps struct {
	repo     *mockRepository
	jobs     *mockJobService
	linkedin *mockPublisher
}

func newTestService(t *testing.T) (*postService, testDeps) {
	t.Helper()
	deps := testDeps{
		repo:     new(mockRepository),
		jobs:     new(mockJobService),
		linkedin: new(mockPublisher),
	}
	reg := publishers.NewRegistry()
	reg.Register(publishers.PlatformLinkedIn, deps.linkedin)

	svc := NewPostService(deps.repo, deps.jobs, reg, time.Second, zap.NewNop().Sugar()).(*postService)
	svc.clock = func() time.Time { return fixedNow }
	return svc, deps
}

func TestCreatePost_Draft(t *testing.T) {
	svc, deps := newTestService(t)
	deps.repo.On("Create", mock.Anything, mock.AnythingOfType("*posts.Post")).Return(nil)

	post, err := svc.CreatePost(context.Background(), CreatePostRequest{
		Content:  "Quarterly update",
		Platform: publishers.PlatformLinkedIn,
	})

	require.NoError(t, err)
	assert.Equal(t, StatusDraft, post.Status)
	assert.Equal(t, defaultAuthor, post.Author)
	assert.NotEmpty(t, post.ID)
	deps.linkedin.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	deps.repo.AssertExpectations(t)
}

func TestCreatePost_PublishNow(t *testing.T) {
	svc, deps := newTestService(t)
	deps.linkedin.On("Publish", mock.Anything, "Launch day", (*publishers.Media)(nil)).
		Return("urn:li:share:42", nil)
	deps.repo.On("Create", mock.Anything, mock.MatchedBy(func(p *Post) bool {
		return p.Status == StatusPublished && p.PlatformPostID != nil && *p.PlatformPostID == "urn:li:share:42"
	})).Return(nil)

	post, err := svc.CreatePost(context.Background(), CreatePostRequest{
		Content:  "Launch day",
		Platform: publishers.PlatformLinkedIn,
		Status:   StatusPublished,
		Author:   "alice",
	})

	require.NoError(t, err)
	require.NotNil(t, post.PublishedAt)
	assert.Equal(t, fixedNow, *post.PublishedAt)
	assert.Equal(t, "alice", post.Author)
	deps.repo.AssertExpectations(t)
}

func TestCreatePost_PublishNowRejected(t *testing.T) {
	svc, deps := newTestService(t)
	deps.linkedin.On("Publish", mock.Anything, "Launch day", (*publishers.Media)(nil)).
		Return("", publishers.NewDuplicateContentError(publishers.PlatformLinkedIn, "duplicate"))

	_, err := svc.CreatePost(context.Background(), CreatePostRequest{
		Content:  "Launch day",
		Platform: publishers.PlatformLinkedIn,
		Status:   StatusPublished,
	})

	require.Error(t, err)
	assert.True(t, publishers.IsDuplicateContent(err))
	deps.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreatePost_PublishedButNotSavedIsTakenDown(t *testing.T) {
	svc, deps := newTestService(t)
	core, logs := observer.New(zapcore.ErrorLevel)
	svc.log = zap.New(core).Sugar()

	deps.linkedin.On("Publish", mock.Anything, "Launch day", (*publishers.Media)(nil)).
		Return("urn:li:share:42", nil)
	deps.repo.On("Create", mock.Anything, mock.AnythingOfType("*posts.Post")).Return(errors.New("db down"))
	deps.linkedin.On("DeleteByPlatformID", mock.Anything, "urn:li:share:42").Return(nil)

	_, err := svc.CreatePost(context.Background(), CreatePostRequest{
		Content:  "Launch day",
		Platform: publishers.PlatformLinkedIn,
		Status:   StatusPublished,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create post")
	deps.linkedin.AssertExpectations(t)

	entries := logs.FilterField(zap.String("platform_post_id", "urn:li:share:42")).All()
	require.Len(t, entries, 1)
	assert.Equal(t, "published but failed to save post", entries[0].Message)
}

func TestCreatePost_Scheduled(t *testing.T) {
	svc, deps := newTestService(t)
	at := fixedNow.Add(2 * time.Hour)

	deps.repo.On("Create", mock.Anything, mock.AnythingOfType("*posts.Post")).Return(nil)
	deps.jobs.On("CreateJob", mock.Anything, mock.MatchedBy(func(req scheduled.CreateJobRequest) bool {
		return req.PostID != nil && req.TargetTime.Equal(at) && req.Content == "Later"
	})).Return(&scheduled.Job{ID: testJobID, State: scheduled.StatePending}, nil)
	deps.repo.On("Update", mock.Anything, mock.MatchedBy(func(p *Post) bool {
		return p.ScheduledJobID != nil && *p.ScheduledJobID == testJobID
	})).Return(nil)

	post, err := svc.CreatePost(context.Background(), CreatePostRequest{
		Content:     "Later",
		Platform:    publishers.PlatformLinkedIn,
		ScheduledAt: &at,
	})

	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, post.Status)
	deps.repo.AssertExpectations(t)
	deps.jobs.AssertExpectations(t)
}

func TestCreatePost_ScheduleFailureRemovesPost(t *testing.T) {
	svc, deps := newTestService(t)
	at := fixedNow.Add(time.Hour)

	deps.repo.On("Create", mock.Anything, mock.AnythingOfType("*posts.Post")).Return(nil)
	deps.jobs.On("CreateJob", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))
	deps.repo.On("Delete", mock.Anything, mock.AnythingOfType("string")).Return(nil)

	_, err := svc.CreatePost(context.Background(), CreatePostRequest{
		Content:     "Later",
		Platform:    publishers.PlatformLinkedIn,
		ScheduledAt: &at,
	})

	require.Error(t, err)
	deps.repo.AssertCalled(t, "Delete", mock.Anything, mock.AnythingOfType("string"))
}

func TestCreatePost_LinkFailureRemovesJobAndPost(t *testing.T) {
	svc, deps := newTestService(t)
	at := fixedNow.Add(time.Hour)

	deps.repo.On("Create", mock.Anything, mock.AnythingOfType("*posts.Post")).Return(nil)
	deps.jobs.On("CreateJob", mock.Anything, mock.Anything).
		Return(&scheduled.Job{ID: testJobID, State: scheduled.StatePending}, nil)
	deps.repo.On("Update", mock.Anything, mock.AnythingOfType("*posts.Post")).Return(errors.New("db down"))
	deps.jobs.On("DeleteJob", mock.Anything, testJobID).Return(nil)
	deps.repo.On("Delete", mock.Anything, mock.AnythingOfType("string")).Return(nil)

	_, err := svc.CreatePost(context.Background(), CreatePostRequest{
		Content:     "Later",
		Platform:    publishers.PlatformLinkedIn,
		ScheduledAt: &at,
	})

	require.Error(t, err)
	deps.jobs.AssertExpectations(t)
	deps.repo.AssertExpectations(t)
}

func TestCreatePost_Validation(t *testing.T) {
	past := fixedNow.Add(-time.Minute)
	future := fixedNow.Add(time.Minute)

	tests := []struct {
		name  string
		req   CreatePostRequest
		field string
	}{
		{"empty content", CreatePostRequest{Content: "  ", Platform: publishers.PlatformLinkedIn}, "content"},
		{"missing platform", CreatePostRequest{Content: "hi"}, "platform"},
		{"unknown platform", CreatePostRequest{Content: "hi", Platform: "myspace"}, "platform"},
		{"unknown status", CreatePostRequest{Content: "hi", Platform: publishers.PlatformLinkedIn, Status: "archived"}, "status"},
		{"scheduled without time", CreatePostRequest{Content: "hi", Platform: publishers.PlatformLinkedIn, Status: StatusScheduled}, "scheduledAt"},
		{"schedule in the past", CreatePostRequest{Content: "hi", Platform: publishers.PlatformLinkedIn, ScheduledAt: &past}, "scheduledAt"},
		{"instagram without media", CreatePostRequest{Content: "hi", Platform: publishers.PlatformInstagram, ScheduledAt: &future}, "media"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, deps := newTestService(t)

			_, err := svc.CreatePost(context.Background(), tt.req)

			var valErr *ValidationError
			require.True(t, errors.As(err, &valErr), "expected validation error, got %v", err)
			assert.Equal(t, tt.field, valErr.Field)
			deps.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestUpdatePost_PublishedIsFinal(t *testing.T) {
	svc, deps := newTestService(t)
	deps.repo.On("GetByID", mock.Anything, testPostID).
		Return(&Post{ID: testPostID, Status: StatusPublished, Platform: publishers.PlatformLinkedIn}, nil)

	status := StatusDraft
	_, err := svc.UpdatePost(context.Background(), testPostID, UpdatePostRequest{Status: &status})

	assert.ErrorIs(t, err, ErrNotEditable)
	deps.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdatePost_UnscheduleCancelsJob(t *testing.T) {
	svc, deps := newTestService(t)
	at := fixedNow.Add(time.Hour)
	jobID := testJobID

	deps.repo.On("GetByID", mock.Anything, testPostID).Return(&Post{
		ID: testPostID, Content: "x", Status: StatusScheduled, Platform: publishers.PlatformLinkedIn,
		ScheduledAt: &at, ScheduledJobID: &jobID,
	}, nil)
	deps.jobs.On("GetJob", mock.Anything, testJobID).
		Return(&scheduled.Job{ID: testJobID, State: scheduled.StatePending}, nil)
	deps.jobs.On("DeleteJob", mock.Anything, testJobID).Return(nil)
	deps.repo.On("Update", mock.Anything, mock.MatchedBy(func(p *Post) bool {
		return p.Status == StatusDraft && p.ScheduledJobID == nil && p.ScheduledAt == nil
	})).Return(nil)

	status := StatusDraft
	post, err := svc.UpdatePost(context.Background(), testPostID, UpdatePostRequest{Status: &status})

	require.NoError(t, err)
	assert.Equal(t, StatusDraft, post.Status)
	deps.jobs.AssertExpectations(t)
	deps.repo.AssertExpectations(t)
}

func TestUpdatePost_ClaimedJobBlocksUnschedule(t *testing.T) {
	svc, deps := newTestService(t)
	at := fixedNow.Add(-time.Minute)
	jobID := testJobID

	deps.repo.On("GetByID", mock.Anything, testPostID).Return(&Post{
		ID: testPostID, Content: "x", Status: StatusScheduled, Platform: publishers.PlatformLinkedIn,
		ScheduledAt: &at, ScheduledJobID: &jobID,
	}, nil)
	deps.jobs.On("GetJob", mock.Anything, testJobID).
		Return(&scheduled.Job{ID: testJobID, State: scheduled.StatePublishing}, nil)

	status := StatusDraft
	_, err := svc.UpdatePost(context.Background(), testPostID, UpdatePostRequest{Status: &status})

	assert.ErrorIs(t, err, ErrNotEditable)
	deps.jobs.AssertNotCalled(t, "DeleteJob", mock.Anything, mock.Anything)
}

func TestUpdatePost_RescheduleUpdatesJob(t *testing.T) {
	svc, deps := newTestService(t)
	at := fixedNow.Add(time.Hour)
	newAt := fixedNow.Add(3 * time.Hour)
	jobID := testJobID

	deps.repo.On("GetByID", mock.Anything, testPostID).Return(&Post{
		ID: testPostID, Content: "x", Status: StatusScheduled, Platform: publishers.PlatformLinkedIn,
		ScheduledAt: &at, ScheduledJobID: &jobID,
	}, nil)
	deps.jobs.On("UpdateJob", mock.Anything, testJobID, mock.MatchedBy(func(req scheduled.UpdateJobRequest) bool {
		return req.TargetTime != nil && req.TargetTime.Equal(newAt)
	})).Return(&scheduled.Job{ID: testJobID}, nil)
	deps.repo.On("Update", mock.Anything, mock.AnythingOfType("*posts.Post")).Return(nil)

	post, err := svc.UpdatePost(context.Background(), testPostID, UpdatePostRequest{ScheduledAt: &newAt})

	require.NoError(t, err)
	assert.Equal(t, newAt, *post.ScheduledAt)
	deps.jobs.AssertExpectations(t)
}

func TestUpdatePost_ScheduleSaveFailureRemovesNewJob(t *testing.T) {
	svc, deps := newTestService(t)
	at := fixedNow.Add(2 * time.Hour)

	deps.repo.On("GetByID", mock.Anything, testPostID).Return(&Post{
		ID: testPostID, Content: "x", Status: StatusDraft, Platform: publishers.PlatformLinkedIn,
	}, nil)
	deps.jobs.On("CreateJob", mock.Anything, mock.MatchedBy(func(req scheduled.CreateJobRequest) bool {
		return req.TargetTime.Equal(at)
	})).Return(&scheduled.Job{ID: testJobID, State: scheduled.StatePending}, nil)
	deps.repo.On("Update", mock.Anything, mock.AnythingOfType("*posts.Post")).Return(errors.New("db down"))
	deps.jobs.On("DeleteJob", mock.Anything, testJobID).Return(nil)

	_, err := svc.UpdatePost(context.Background(), testPostID, UpdatePostRequest{ScheduledAt: &at})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to update post")
	deps.jobs.AssertExpectations(t)
}

func TestUpdatePost_RescheduleSaveFailureKeepsExistingJob(t *testing.T) {
	svc, deps := newTestService(t)
	at := fixedNow.Add(time.Hour)
	newAt := fixedNow.Add(3 * time.Hour)
	jobID := testJobID

	deps.repo.On("GetByID", mock.Anything, testPostID).Return(&Post{
		ID: testPostID, Content: "x", Status: StatusScheduled, Platform: publishers.PlatformLinkedIn,
		ScheduledAt: &at, ScheduledJobID: &jobID,
	}, nil)
	deps.jobs.On("UpdateJob", mock.Anything, testJobID, mock.Anything).Return(&scheduled.Job{ID: testJobID}, nil)
	deps.repo.On("Update", mock.Anything, mock.AnythingOfType("*posts.Post")).Return(errors.New("db down"))

	_, err := svc.UpdatePost(context.Background(), testPostID, UpdatePostRequest{ScheduledAt: &newAt})

	require.Error(t, err)
	deps.jobs.AssertNotCalled(t, "DeleteJob", mock.Anything, mock.Anything)
}

func TestDeletePost_RemoteFailureDoesNotBlock(t *testing.T) {
	svc, deps := newTestService(t)
	platformID := "urn:li:share:42"

	deps.repo.On("GetByID", mock.Anything, testPostID).Return(&Post{
		ID: testPostID, Status: StatusPublished, Platform: publishers.PlatformLinkedIn, PlatformPostID: &platformID,
	}, nil)
	deps.linkedin.On("DeleteByPlatformID", mock.Anything, platformID).
		Return(publishers.NewTransientError(publishers.PlatformLinkedIn, 500, errors.New("boom")))
	deps.repo.On("Delete", mock.Anything, testPostID).Return(nil)

	err := svc.DeletePost(context.Background(), testPostID)

	require.NoError(t, err)
	deps.linkedin.AssertExpectations(t)
	deps.repo.AssertExpectations(t)
}

func TestDeletePost_NotFound(t *testing.T) {
	svc, deps := newTestService(t)
	deps.repo.On("GetByID", mock.Anything, testPostID).Return(nil, ErrNotFound)

	err := svc.DeletePost(context.Background(), testPostID)

	assert.True(t, IsNotFound(err))
}

func TestListPosts_Pagination(t *testing.T) {
	svc, deps := newTestService(t)
	deps.repo.On("List", mock.Anything, mock.MatchedBy(func(f ListFilter) bool {
		return f.Page == 1 && f.Limit == defaultPageLimit
	})).Return([]*Post{{ID: testPostID}}, 21, nil)

	res, err := svc.ListPosts(context.Background(), ListFilter{})

	require.NoError(t, err)
	assert.Equal(t, 21, res.Total)
	assert.Equal(t, 3, res.Pages)
	assert.Len(t, res.Posts, 1)
}

func TestCountPosts(t *testing.T) {
	svc, deps := newTestService(t)
	status := StatusPublished
	deps.repo.On("CountByPlatform", mock.Anything, &status).Return(map[publishers.Platform]int{
		publishers.PlatformLinkedIn:  4,
		publishers.PlatformInstagram: 2,
	}, nil)

	res, err := svc.CountPosts(context.Background(), &status)

	require.NoError(t, err)
	assert.Equal(t, 6, res.TotalCount)
	assert.Equal(t, 4, res.Breakdown[publishers.PlatformLinkedIn])
}

func TestParseDayAndMonth(t *testing.T) {
	from, to, err := ParseDay("15-06-25")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), to)

	from, to, err = ParseMonth("12-25")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), to)

	_, _, err = ParseDay("2025-06-15")
	assert.True(t, IsValidationError(err))
	_, _, err = ParseMonth("13-25")
	assert.True(t, IsValidationError(err))
}

func TestParseTag(t *testing.T) {
	st, err := ParseTag("all")
	require.NoError(t, err)
	assert.Nil(t, st)

	st, err = ParseTag("Published")
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, StatusPublished, *st)

	_, err = ParseTag("archived")
	assert.True(t, IsValidationError(err))
}
