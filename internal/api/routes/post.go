package routes

import (
	"Socialbot/internal/api/handlers/post"
	"Socialbot/internal/core/posts"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RegisterPostRoutes mounts the post endpoints under /post.
// r is expected to already carry auth and rate limiting.
func RegisterPostRoutes(r chi.Router, service posts.Service, log *zap.SugaredLogger) {
	createHandler := post.NewCreateHandler(service, log)
	getHandler := post.NewGetHandler(service, log)
	updateHandler := post.NewUpdateHandler(service, log)
	deleteHandler := post.NewDeleteHandler(service, log)

	r.Route("/post", func(r chi.Router) {
		r.Post("/", createHandler.HandleCreate)
		r.Get("/", getHandler.HandleList)

		// Static segments win over /{id} in chi
		r.Get("/total-count", getHandler.HandleTotalCount)
		r.Get("/by-date/{date}", getHandler.HandleByDate)
		r.Get("/by-month/{month}", getHandler.HandleByMonth)
		r.Get("/tag/{tag}", getHandler.HandleByTag)

		r.Get("/{id}", getHandler.HandleGet)
		r.Put("/{id}", updateHandler.HandleUpdate)
		r.Delete("/{id}", deleteHandler.HandleDelete)
	})
}
