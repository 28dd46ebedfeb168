package post

import (
	"net/http"

	"Socialbot/internal/api/handlers"
	"Socialbot/internal/core/posts"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DeleteHandler handles post deletion requests
type DeleteHandler struct {
	service posts.Service
	log     *zap.SugaredLogger
}

// NewDeleteHandler creates a new delete handler
func NewDeleteHandler(service posts.Service, log *zap.SugaredLogger) *DeleteHandler {
	return &DeleteHandler{service: service, log: log}
}

// HandleDelete handles DELETE /api/post/{id}
// Published posts are removed from the platform when it allows it; the local
// delete goes ahead either way
func (h *DeleteHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePost(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, h.log, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Post deleted successfully",
	})
}
