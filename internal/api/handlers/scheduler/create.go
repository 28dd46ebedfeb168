package scheduler

import (
	"net/http"

	"Socialbot/internal/api/handlers"
	"Socialbot/internal/core/scheduled"

	"go.uber.org/zap"
)

// CreateHandler handles scheduling new jobs
type CreateHandler struct {
	service scheduled.Service
	log     *zap.SugaredLogger
}

// NewCreateHandler creates a new create handler
func NewCreateHandler(service scheduled.Service, log *zap.SugaredLogger) *CreateHandler {
	return &CreateHandler{service: service, log: log}
}

// HandleCreate handles POST /api/scheduler
func (h *CreateHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	// 1. Parse and validate the body
	var body createJobBody
	if !handlers.DecodeJSON(w, r, &body) {
		return
	}
	if !handlers.ValidateBody(w, &body) {
		return
	}

	// 2. Create the job; the service enforces the future target time
	job, err := h.service.CreateJob(r.Context(), body.toRequest())
	if err != nil {
		handleServiceError(w, h.log, err)
		return
	}

	// 3. Return the stored job
	handlers.WriteJSON(w, http.StatusCreated, toJobView(job))
}
