package post

import (
	"net/http"

	"Socialbot/internal/api/handlers"
	"Socialbot/internal/core/posts"
	"Socialbot/internal/core/publishers"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// GetHandler serves post reads: single posts, filtered lists and counts
type GetHandler struct {
	service posts.Service
	log     *zap.SugaredLogger
}

// NewGetHandler creates a new get handler
func NewGetHandler(service posts.Service, log *zap.SugaredLogger) *GetHandler {
	return &GetHandler{service: service, log: log}
}

// HandleGet handles GET /api/post/{id}
func (h *GetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.GetPost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, post)
}

// HandleList handles GET /api/post
// Query: status, platform, date (DD-MM-YY), month (MM-YY), tag, page, limit
func (h *GetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.list(w, r, q.Get("date"), q.Get("month"), q.Get("tag"))
}

// HandleByDate handles GET /api/post/by-date/{date}
func (h *GetHandler) HandleByDate(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, chi.URLParam(r, "date"), "", r.URL.Query().Get("tag"))
}

// HandleByMonth handles GET /api/post/by-month/{month}
func (h *GetHandler) HandleByMonth(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "", chi.URLParam(r, "month"), r.URL.Query().Get("tag"))
}

// HandleByTag handles GET /api/post/tag/{tag}
func (h *GetHandler) HandleByTag(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, r.URL.Query().Get("date"), r.URL.Query().Get("month"), chi.URLParam(r, "tag"))
}

// HandleTotalCount handles GET /api/post/total-count?status=
func (h *GetHandler) HandleTotalCount(w http.ResponseWriter, r *http.Request) {
	var status *posts.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, err := posts.ParseStatus(raw)
		if err != nil {
			handleServiceError(w, h.log, err)
			return
		}
		status = &st
	}

	counts, err := h.service.CountPosts(r.Context(), status)
	if err != nil {
		handleServiceError(w, h.log, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, counts)
}

func (h *GetHandler) list(w http.ResponseWriter, r *http.Request, date, month, tag string) {
	filter, err := buildFilter(r, date, month, tag)
	if err != nil {
		handleServiceError(w, h.log, err)
		return
	}

	result, err := h.service.ListPosts(r.Context(), filter)
	if err != nil {
		handleServiceError(w, h.log, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, toListResponse(result))
}

// buildFilter combines query parameters with the route's date, month or tag.
// A tag other than "all" acts as a status filter and conflicts with an
// explicit, different status.
func buildFilter(r *http.Request, date, month, tag string) (posts.ListFilter, error) {
	q := r.URL.Query()
	var filter posts.ListFilter

	if raw := q.Get("status"); raw != "" {
		st, err := posts.ParseStatus(raw)
		if err != nil {
			return filter, err
		}
		filter.Status = &st
	}
	if tag != "" {
		st, err := posts.ParseTag(tag)
		if err != nil {
			return filter, err
		}
		if st != nil {
			if filter.Status != nil && *filter.Status != *st {
				return filter, posts.NewValidationError("tag", "tag conflicts with status")
			}
			filter.Status = st
		}
	}

	if raw := q.Get("platform"); raw != "" {
		p, err := publishers.ParsePlatform(raw)
		if err != nil {
			return filter, posts.NewValidationError("platform", "must be linkedin or instagram")
		}
		filter.Platform = &p
	}

	if date != "" && month != "" {
		return filter, posts.NewValidationError("date", "use either date or month, not both")
	}
	if date != "" {
		from, to, err := posts.ParseDay(date)
		if err != nil {
			return filter, err
		}
		filter.CreatedFrom, filter.CreatedTo = &from, &to
	}
	if month != "" {
		from, to, err := posts.ParseMonth(month)
		if err != nil {
			return filter, err
		}
		filter.CreatedFrom, filter.CreatedTo = &from, &to
	}

	var err error
	if filter.Page, err = handlers.QueryInt(r, "page", 1); err != nil {
		return filter, posts.NewValidationError("page", "must be an integer")
	}
	if filter.Limit, err = handlers.QueryInt(r, "limit", 0); err != nil {
		return filter, posts.NewValidationError("limit", "must be an integer")
	}
	return filter, nil
}
