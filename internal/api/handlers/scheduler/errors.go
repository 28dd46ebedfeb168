package scheduler

import (
	"net/http"

	"Socialbot/internal/api/handlers"
	"Socialbot/internal/core/scheduled"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// handleServiceError maps scheduled job service errors to HTTP responses
func handleServiceError(w http.ResponseWriter, log *zap.SugaredLogger, err error) {
	var valErr *scheduled.ValidationError
	switch {
	case errors.As(err, &valErr):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", valErr.Field+": "+valErr.Message)

	case scheduled.IsNotFound(err):
		handlers.WriteError(w, http.StatusNotFound, "JobNotFound", "Scheduled job not found")

	case errors.Is(err, scheduled.ErrNotEditable):
		handlers.WriteError(w, http.StatusConflict, "JobNotEditable",
			"Scheduled job has already been picked up and can no longer be changed")

	default:
		// Don't leak internal error details to clients
		log.Errorw("unexpected error in scheduler handler", "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError",
			"An internal error occurred")
	}
}
