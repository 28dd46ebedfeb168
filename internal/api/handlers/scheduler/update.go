package scheduler

import (
	"net/http"
	"strings"

	"Socialbot/internal/api/handlers"
	"Socialbot/internal/core/scheduled"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UpdateHandler handles edits to pending jobs
type UpdateHandler struct {
	service scheduled.Service
	log     *zap.SugaredLogger
}

// NewUpdateHandler creates a new update handler
func NewUpdateHandler(service scheduled.Service, log *zap.SugaredLogger) *UpdateHandler {
	return &UpdateHandler{service: service, log: log}
}

// HandleUpdate handles PUT /api/scheduler/{id}
func (h *UpdateHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var body updateJobBody
	if !handlers.DecodeJSON(w, r, &body) {
		return
	}
	if !handlers.ValidateBody(w, &body) {
		return
	}

	job, err := h.service.UpdateJob(r.Context(), chi.URLParam(r, "id"), body.toRequest())
	if err != nil {
		handleServiceError(w, h.log, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, toJobView(job))
}

// splitCSV flattens repeated and comma-separated query values
func splitCSV(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
