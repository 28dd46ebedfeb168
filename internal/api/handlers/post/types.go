package post

import (
	"time"

	"Socialbot/internal/core/posts"
	"Socialbot/internal/core/publishers"
)

// createPostBody is the JSON body of POST /api/post
type createPostBody struct {
	ScheduledAt *time.Time `json:"scheduledAt"`
	Content     string     `json:"content" validate:"required,max=3000"`
	Author      string     `json:"author" validate:"omitempty,max=100"`
	Status      string     `json:"status" validate:"omitempty,oneof=draft scheduled published"`
	Platform    string     `json:"platform" validate:"required,oneof=linkedin instagram"`
	MediaURL    string     `json:"mediaUrl" validate:"required_with=MediaType,omitempty,url"`
	MediaType   string     `json:"mediaType" validate:"required_with=MediaURL,omitempty,oneof=image video"`
}

func (b *createPostBody) toRequest(author string) posts.CreatePostRequest {
	return posts.CreatePostRequest{
		Content:     b.Content,
		Author:      author,
		Status:      posts.Status(b.Status),
		Platform:    publishers.Platform(b.Platform),
		ScheduledAt: b.ScheduledAt,
		Media:       mediaFromBody(b.MediaURL, b.MediaType),
	}
}

// updatePostBody is the JSON body of PUT /api/post/{id}; omitted fields are kept
type updatePostBody struct {
	Content     *string    `json:"content" validate:"omitempty,max=3000"`
	Status      *string    `json:"status" validate:"omitempty,oneof=draft scheduled published"`
	Platform    *string    `json:"platform" validate:"omitempty,oneof=linkedin instagram"`
	ScheduledAt *time.Time `json:"scheduledAt"`
	MediaURL    *string    `json:"mediaUrl" validate:"omitempty,url"`
	MediaType   *string    `json:"mediaType" validate:"omitempty,oneof=image video"`
}

func (b *updatePostBody) toRequest() posts.UpdatePostRequest {
	req := posts.UpdatePostRequest{
		Content:     b.Content,
		ScheduledAt: b.ScheduledAt,
	}
	if b.Status != nil {
		st := posts.Status(*b.Status)
		req.Status = &st
	}
	if b.Platform != nil {
		p := publishers.Platform(*b.Platform)
		req.Platform = &p
	}
	if b.MediaURL != nil && b.MediaType != nil {
		req.Media = mediaFromBody(*b.MediaURL, *b.MediaType)
	}
	return req
}

func mediaFromBody(url, mediaType string) *publishers.Media {
	if url == "" {
		return nil
	}
	return &publishers.Media{URL: url, Type: publishers.MediaType(mediaType)}
}

type pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

type listPostsResponse struct {
	Posts      []*posts.Post `json:"posts"`
	Pagination pagination    `json:"pagination"`
}

func toListResponse(result *posts.ListResult) listPostsResponse {
	found := result.Posts
	if found == nil {
		found = []*posts.Post{}
	}
	return listPostsResponse{
		Posts: found,
		Pagination: pagination{
			Total: result.Total,
			Page:  result.Page,
			Limit: result.Limit,
			Pages: result.Pages,
		},
	}
}
