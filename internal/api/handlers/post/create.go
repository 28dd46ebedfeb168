package post

import (
	"net/http"

	"Socialbot/internal/api/handlers"
	"Socialbot/internal/api/middleware"
	"Socialbot/internal/core/posts"

	"go.uber.org/zap"
)

// CreateHandler handles post creation requests
type CreateHandler struct {
	service posts.Service
	log     *zap.SugaredLogger
}

// NewCreateHandler creates a new create handler
func NewCreateHandler(service posts.Service, log *zap.SugaredLogger) *CreateHandler {
	return &CreateHandler{service: service, log: log}
}

// HandleCreate handles POST /api/post
// Saves a draft, publishes immediately or schedules the post depending on
// status and scheduledAt
func (h *CreateHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	// 1. Parse and validate the body
	var body createPostBody
	if !handlers.DecodeJSON(w, r, &body) {
		return
	}
	if !handlers.ValidateBody(w, &body) {
		return
	}

	// 2. Author falls back to the authenticated subject
	author := body.Author
	if author == "" {
		author = middleware.GetUserID(r)
	}

	// 3. Create; immediate publishes reach the platform before anything is saved
	post, err := h.service.CreatePost(r.Context(), body.toRequest(author))
	if err != nil {
		handleServiceError(w, h.log, err)
		return
	}

	handlers.WriteJSON(w, http.StatusCreated, post)
}
