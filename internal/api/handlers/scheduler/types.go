package scheduler

import (
	"time"

	"Socialbot/internal/core/publishers"
	"Socialbot/internal/core/scheduled"
)

// createJobBody is the JSON body of POST /api/scheduler
type createJobBody struct {
	ScheduleTime *time.Time `json:"scheduleTime" validate:"required"`
	PostID       *string    `json:"postId" validate:"omitempty,uuid"`
	Content      string     `json:"content" validate:"required,max=3000"`
	MediaURL     string     `json:"mediaUrl" validate:"required_with=MediaType,omitempty,url"`
	MediaType    string     `json:"mediaType" validate:"required_with=MediaURL,omitempty,oneof=image video"`
	Platform     string     `json:"platform" validate:"omitempty,oneof=linkedin instagram"`
}

func (b *createJobBody) toRequest() scheduled.CreateJobRequest {
	return scheduled.CreateJobRequest{
		Content:    b.Content,
		Media:      mediaFromBody(b.MediaURL, b.MediaType),
		Platform:   publishers.Platform(b.Platform),
		PostID:     b.PostID,
		TargetTime: *b.ScheduleTime,
	}
}

// updateJobBody is the JSON body of PUT /api/scheduler/{id}.
// Omitted fields keep their value; an empty mediaUrl removes the media.
type updateJobBody struct {
	Content      *string    `json:"content" validate:"omitempty,max=3000"`
	MediaURL     *string    `json:"mediaUrl" validate:"omitempty,url"`
	MediaType    *string    `json:"mediaType" validate:"omitempty,oneof=image video"`
	ScheduleTime *time.Time `json:"scheduleTime"`
	Platform     *string    `json:"platform" validate:"omitempty,oneof=linkedin instagram"`
}

func (b *updateJobBody) toRequest() scheduled.UpdateJobRequest {
	req := scheduled.UpdateJobRequest{
		Content:    b.Content,
		TargetTime: b.ScheduleTime,
	}
	if b.Platform != nil {
		p := publishers.Platform(*b.Platform)
		req.Platform = &p
	}
	if b.MediaURL != nil {
		if *b.MediaURL == "" {
			req.ClearMedia = true
		} else {
			var mediaType string
			if b.MediaType != nil {
				mediaType = *b.MediaType
			}
			req.Media = mediaFromBody(*b.MediaURL, mediaType)
		}
	}
	return req
}

func mediaFromBody(url, mediaType string) *publishers.Media {
	if url == "" {
		return nil
	}
	return &publishers.Media{URL: url, Type: publishers.MediaType(mediaType)}
}

// jobView is the JSON representation of a scheduled job
type jobView struct {
	ScheduleTime   time.Time           `json:"scheduleTime"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
	PostID         *string             `json:"postId,omitempty"`
	NextAttemptAt  *time.Time          `json:"nextAttemptAt,omitempty"`
	PublishedAt    *time.Time          `json:"publishedAt,omitempty"`
	PlatformPostID *string             `json:"platformPostId"`
	LastError      *string             `json:"lastError,omitempty"`
	MediaURL       *string             `json:"mediaUrl"`
	MediaType      *string             `json:"mediaType"`
	ID             string              `json:"id"`
	Content        string              `json:"content"`
	Platform       publishers.Platform `json:"platform"`
	State          scheduled.State     `json:"state"`
	Attempts       int                 `json:"attempts"`
}

func toJobView(job *scheduled.Job) jobView {
	v := jobView{
		ID:             job.ID,
		Content:        job.Content,
		Platform:       job.Platform,
		PostID:         job.PostID,
		ScheduleTime:   job.TargetTime,
		State:          job.State,
		Attempts:       job.Attempts,
		NextAttemptAt:  job.NextAttemptAt,
		PublishedAt:    job.PublishedAt,
		PlatformPostID: job.PlatformPostID,
		LastError:      job.LastError,
		CreatedAt:      job.CreatedAt,
		UpdatedAt:      job.UpdatedAt,
	}
	if job.Media != nil {
		url, mediaType := job.Media.URL, string(job.Media.Type)
		v.MediaURL = &url
		v.MediaType = &mediaType
	}
	return v
}

type listJobsResponse struct {
	Jobs   []jobView `json:"jobs"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}
