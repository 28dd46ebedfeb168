package scheduler

import (
	"net/http"

	"Socialbot/internal/api/handlers"
	"Socialbot/internal/core/scheduled"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DeleteHandler handles job deletion
type DeleteHandler struct {
	service scheduled.Service
	log     *zap.SugaredLogger
}

// NewDeleteHandler creates a new delete handler
func NewDeleteHandler(service scheduled.Service, log *zap.SugaredLogger) *DeleteHandler {
	return &DeleteHandler{service: service, log: log}
}

// HandleDelete handles DELETE /api/scheduler/{id}
func (h *DeleteHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteJob(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, h.log, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Scheduled job deleted successfully",
	})
}
