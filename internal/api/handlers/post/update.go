package post

import (
	"net/http"

	"Socialbot/internal/api/handlers"
	"Socialbot/internal/core/posts"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UpdateHandler handles post edits and status changes
type UpdateHandler struct {
	service posts.Service
	log     *zap.SugaredLogger
}

// NewUpdateHandler creates a new update handler
func NewUpdateHandler(service posts.Service, log *zap.SugaredLogger) *UpdateHandler {
	return &UpdateHandler{service: service, log: log}
}

// HandleUpdate handles PUT /api/post/{id}
func (h *UpdateHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var body updatePostBody
	if !handlers.DecodeJSON(w, r, &body) {
		return
	}
	if !handlers.ValidateBody(w, &body) {
		return
	}

	post, err := h.service.UpdatePost(r.Context(), chi.URLParam(r, "id"), body.toRequest())
	if err != nil {
		handleServiceError(w, h.log, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, post)
}
