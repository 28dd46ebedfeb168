package scheduler

import (
	"net/http"

	"Socialbot/internal/api/handlers"
	"Socialbot/internal/core/scheduled"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// GetHandler handles reading jobs
type GetHandler struct {
	service scheduled.Service
	log     *zap.SugaredLogger
}

// NewGetHandler creates a new get handler
func NewGetHandler(service scheduled.Service, log *zap.SugaredLogger) *GetHandler {
	return &GetHandler{service: service, log: log}
}

// HandleGet handles GET /api/scheduler/{id}
func (h *GetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	job, err := h.service.GetJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, toJobView(job))
}

// HandleList handles GET /api/scheduler?state=pending,failed&limit=50&offset=0
func (h *GetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseListRequest(w, r)
	if !ok {
		return
	}

	jobs, err := h.service.ListJobs(r.Context(), req)
	if err != nil {
		handleServiceError(w, h.log, err)
		return
	}

	resp := listJobsResponse{
		Jobs:   make([]jobView, 0, len(jobs)),
		Limit:  req.Limit,
		Offset: req.Offset,
	}
	for _, job := range jobs {
		resp.Jobs = append(resp.Jobs, toJobView(job))
	}
	handlers.WriteJSON(w, http.StatusOK, resp)
}

func (h *GetHandler) parseListRequest(w http.ResponseWriter, r *http.Request) (scheduled.ListJobsRequest, bool) {
	var req scheduled.ListJobsRequest

	for _, raw := range splitCSV(r.URL.Query()["state"]) {
		st, err := scheduled.ParseState(raw)
		if err != nil {
			handleServiceError(w, h.log, err)
			return req, false
		}
		req.States = append(req.States, st)
	}

	var err error
	if req.Limit, err = handlers.QueryInt(r, "limit", 0); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
		return req, false
	}
	if req.Offset, err = handlers.QueryInt(r, "offset", 0); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
		return req, false
	}
	return req, true
}
