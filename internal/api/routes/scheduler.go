package routes

import (
	"Socialbot/internal/api/handlers/scheduler"
	"Socialbot/internal/core/scheduled"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RegisterSchedulerRoutes mounts the scheduled job endpoints under /scheduler
func RegisterSchedulerRoutes(r chi.Router, service scheduled.Service, log *zap.SugaredLogger) {
	createHandler := scheduler.NewCreateHandler(service, log)
	getHandler := scheduler.NewGetHandler(service, log)
	updateHandler := scheduler.NewUpdateHandler(service, log)
	deleteHandler := scheduler.NewDeleteHandler(service, log)

	r.Route("/scheduler", func(r chi.Router) {
		r.Post("/", createHandler.HandleCreate)
		r.Get("/", getHandler.HandleList)
		r.Get("/{id}", getHandler.HandleGet)
		r.Put("/{id}", updateHandler.HandleUpdate)
		r.Delete("/{id}", deleteHandler.HandleDelete)
	})
}
