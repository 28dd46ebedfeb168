package post

import (
	"net/http"

	"Socialbot/internal/api/handlers"
	"Socialbot/internal/core/posts"
	"Socialbot/internal/core/publishers"
	"Socialbot/internal/core/scheduled"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// handleServiceError maps post service errors to HTTP responses
func handleServiceError(w http.ResponseWriter, log *zap.SugaredLogger, err error) {
	var valErr *posts.ValidationError
	var jobValErr *scheduled.ValidationError
	var dupErr *publishers.DuplicateContentError

	switch {
	case errors.As(err, &valErr):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", valErr.Field+": "+valErr.Message)

	case errors.As(err, &jobValErr):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", jobValErr.Field+": "+jobValErr.Message)

	case errors.Is(err, publishers.ErrUnsupportedPlatform):
		handlers.WriteError(w, http.StatusBadRequest, "UnsupportedPlatform", "No publisher is configured for this platform")

	case errors.Is(err, publishers.ErrMediaRequired):
		handlers.WriteError(w, http.StatusBadRequest, "MediaRequired", "This platform requires an image or video")

	case posts.IsNotFound(err):
		handlers.WriteError(w, http.StatusNotFound, "PostNotFound", "Post not found")

	case errors.Is(err, posts.ErrNotEditable), errors.Is(err, scheduled.ErrNotEditable):
		handlers.WriteError(w, http.StatusConflict, "PostNotEditable", "Post can no longer be modified")

	case errors.As(err, &dupErr):
		handlers.WriteError(w, http.StatusConflict, "DuplicateContent",
			"The platform rejected this post as a duplicate")

	case errors.Is(err, publishers.ErrCircuitOpen):
		handlers.WriteError(w, http.StatusServiceUnavailable, "PlatformUnavailable",
			"The platform is temporarily unavailable, try again later")

	case publishers.IsTransient(err):
		log.Warnw("platform publish failed", "error", err)
		handlers.WriteError(w, http.StatusBadGateway, "PlatformError", "The platform could not publish this post")

	default:
		// Don't leak internal error details to clients
		log.Errorw("unexpected error in post handler", "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError",
			"An internal error occurred")
	}
}
