package scheduled

import (
	"strings"
	"time"

	"Socialbot/internal/core/publishers"

	"github.com/cockroachdb/errors"
)

// State is the lifecycle state of a scheduled job
type State string

const (
	// StatePending jobs wait for their target time (or retry window) to pass
	StatePending State = "pending"
	// StatePublishing jobs have been claimed by exactly one poller
	StatePublishing State = "publishing"
	// StatePublished jobs reached the platform; terminal
	StatePublished State = "published"
	// StateFailed jobs will never be attempted again; terminal
	StateFailed State = "failed"
)

var allStates = []State{StatePending, StatePublishing, StatePublished, StateFailed}

// transitions lists every edge of the job state machine.
// publishing -> pending only happens when a retry window is set.
var transitions = map[State][]State{
	StatePending:    {StatePublishing},
	StatePublishing: {StatePublished, StateFailed, StatePending},
}

// ParseState normalizes a client-supplied state name
func ParseState(s string) (State, error) {
	st := State(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", NewValidationError("state", "must be one of pending, publishing, published, failed")
	}
	return st, nil
}

// Valid reports whether s is a known state
func (s State) Valid() bool {
	for _, known := range allStates {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible from s
func (s State) IsTerminal() bool {
	return s == StatePublished || s == StateFailed
}

// CanTransition reports whether the state machine allows from -> to
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Job is a pending publish request persisted in the scheduled_jobs table.
// Only the poller moves a job out of StatePending.
type Job struct {
	TargetTime     time.Time           `json:"targetTime" db:"target_time"`
	CreatedAt      time.Time           `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time           `json:"updatedAt" db:"updated_at"`
	Media          *publishers.Media   `json:"media,omitempty"`
	PostID         *string             `json:"postId,omitempty" db:"post_id"`
	NextAttemptAt  *time.Time          `json:"nextAttemptAt,omitempty" db:"next_attempt_at"`
	ClaimedAt      *time.Time          `json:"claimedAt,omitempty" db:"claimed_at"`
	PublishedAt    *time.Time          `json:"publishedAt,omitempty" db:"published_at"`
	PlatformPostID *string             `json:"platformPostId" db:"platform_post_id"`
	LastError      *string             `json:"lastError,omitempty" db:"last_error"`
	ID             string              `json:"id" db:"id"`
	Content        string              `json:"content" db:"content"`
	Platform       publishers.Platform `json:"platform" db:"platform"`
	State          State               `json:"state" db:"state"`
	Attempts       int                 `json:"attempts" db:"attempts"`
}

// IsDue reports whether the job is eligible for a claim at now
func (j *Job) IsDue(now time.Time) bool {
	if j.State != StatePending || j.TargetTime.After(now) {
		return false
	}
	return j.NextAttemptAt == nil || !j.NextAttemptAt.After(now)
}

// CreateJobRequest is the input for scheduling a new publish
type CreateJobRequest struct {
	TargetTime time.Time           `json:"targetTime"`
	Media      *publishers.Media   `json:"media,omitempty"`
	PostID     *string             `json:"postId,omitempty"`
	Content    string              `json:"content"`
	Platform   publishers.Platform `json:"platform,omitempty"`
}

// UpdateJobRequest carries the editable fields of a pending job.
// Nil fields are left unchanged; ClearMedia removes the media reference.
type UpdateJobRequest struct {
	Content    *string              `json:"content,omitempty"`
	TargetTime *time.Time           `json:"targetTime,omitempty"`
	Media      *publishers.Media    `json:"media,omitempty"`
	Platform   *publishers.Platform `json:"platform,omitempty"`
	ClearMedia bool                 `json:"clearMedia,omitempty"`
}

// ListJobsRequest filters and paginates job listings
type ListJobsRequest struct {
	States []State
	Limit  int
	Offset int
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return NewValidationError("content", "content is required")
	}
	return nil
}

func validateMedia(platform publishers.Platform, media *publishers.Media) error {
	if err := media.Validate(); err != nil {
		return NewValidationError("media", err.Error())
	}
	if platform == publishers.PlatformInstagram && media == nil {
		return NewValidationError("media", errors.Wrap(publishers.ErrMediaRequired, "instagram").Error())
	}
	return nil
}
