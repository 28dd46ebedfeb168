package posts

import (
	"strings"
	"time"

	"Socialbot/internal/core/publishers"
)

// Status is the lifecycle status of a post
type Status string

const (
	StatusDraft     Status = "draft"
	StatusScheduled Status = "scheduled"
	StatusPublished Status = "published"
)

var allStatuses = []Status{StatusDraft, StatusScheduled, StatusPublished}

// TagAll matches posts of every status in tag filters
const TagAll = "all"

// ParseStatus normalizes a client-supplied status
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", NewValidationError("status", "must be one of draft, scheduled, published")
	}
	return st, nil
}

// ParseTag resolves a tag filter. "all" returns nil (no status filter);
// any other tag must be a status name.
func ParseTag(tag string) (*Status, error) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == TagAll {
		return nil, nil
	}
	st := Status(tag)
	if !st.Valid() {
		return nil, NewValidationError("tag", "must be one of all, draft, scheduled, published")
	}
	return &st, nil
}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	for _, known := range allStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Post is a piece of content managed for one platform.
// Scheduled posts are backed by a scheduled job which marks the post
// published once the platform accepts it.
type Post struct {
	CreatedAt      time.Time           `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time           `json:"updatedAt" db:"updated_at"`
	Media          *publishers.Media   `json:"media,omitempty"`
	PlatformPostID *string             `json:"platformPostId" db:"platform_post_id"`
	ScheduledJobID *string             `json:"scheduledJobId,omitempty" db:"scheduled_job_id"`
	ScheduledAt    *time.Time          `json:"scheduledAt,omitempty" db:"scheduled_at"`
	PublishedAt    *time.Time          `json:"publishedAt,omitempty" db:"published_at"`
	ID             string              `json:"id" db:"id"`
	Content        string              `json:"content" db:"content"`
	Author         string              `json:"author" db:"author"`
	Status         Status              `json:"status" db:"status"`
	Platform       publishers.Platform `json:"platform" db:"platform"`
}

// CreatePostRequest is the input for creating a post.
// Providing ScheduledAt implies StatusScheduled.
type CreatePostRequest struct {
	ScheduledAt *time.Time
	Media       *publishers.Media
	Content     string
	Author      string
	Status      Status
	Platform    publishers.Platform
}

// UpdatePostRequest carries the editable fields of a post.
// Nil fields are left unchanged.
type UpdatePostRequest struct {
	Content     *string
	Status      *Status
	Platform    *publishers.Platform
	ScheduledAt *time.Time
	Media       *publishers.Media
}

// ListFilter selects and paginates posts, newest first
type ListFilter struct {
	Status      *Status
	Platform    *publishers.Platform
	CreatedFrom *time.Time // inclusive
	CreatedTo   *time.Time // exclusive
	Page        int        // 1-based
	Limit       int
}

// Offset returns the row offset of the filter's page
func (f ListFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// ListResult is one page of posts
type ListResult struct {
	Posts []*Post `json:"posts"`
	Total int     `json:"total"`
	Page  int     `json:"page"`
	Limit int     `json:"limit"`
	Pages int     `json:"pages"`
}

// CountResult is the number of posts per platform
type CountResult struct {
	Breakdown  map[publishers.Platform]int `json:"breakdown"`
	TotalCount int                         `json:"totalCount"`
}

const (
	dayLayout   = "02-01-06" // DD-MM-YY
	monthLayout = "01-06"    // MM-YY
)

// ParseDay turns a DD-MM-YY date into the [start, end) range of that UTC day
func ParseDay(s string) (time.Time, time.Time, error) {
	day, err := time.Parse(dayLayout, s)
	if err != nil {
		return time.Time{}, time.Time{}, NewValidationError("date", "invalid date format, use DD-MM-YY")
	}
	return day, day.AddDate(0, 0, 1), nil
}

// ParseMonth turns an MM-YY month into the [start, end) range of that UTC month
func ParseMonth(s string) (time.Time, time.Time, error) {
	month, err := time.Parse(monthLayout, s)
	if err != nil {
		return time.Time{}, time.Time{}, NewValidationError("month", "invalid month format, use MM-YY")
	}
	return month, month.AddDate(0, 1, 0), nil
}
