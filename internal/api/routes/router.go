package routes

import (
	"net/http"
	"time"

	"Socialbot/internal/api/handlers"
	"Socialbot/internal/api/middleware"
	"Socialbot/internal/core/posts"
	"Socialbot/internal/core/scheduled"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// RouterConfig carries everything the HTTP surface is built from
type RouterConfig struct {
	Posts          posts.Service
	Jobs           scheduled.Service
	Auth           *middleware.JWTAuthMiddleware
	RateLimiter    *middleware.RateLimiter
	Log            *zap.SugaredLogger
	AllowedOrigins []string
	// Health reports readiness; nil always answers OK
	Health func(r *http.Request) error
}

// NewRouter builds the API router.
// /health is public; everything under /api requires a bearer token and is
// rate limited per authenticated user.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(requestLogger(cfg.Log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Health != nil {
			if err := cfg.Health(r); err != nil {
				cfg.Log.Warnw("health check failed", "error", err)
				handlers.WriteError(w, http.StatusServiceUnavailable, "Unavailable", "Service unavailable")
				return
			}
		}
		handlers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(cfg.Auth.RequireAuth)
		r.Use(cfg.RateLimiter.Middleware)

		RegisterPostRoutes(r, cfg.Posts, cfg.Log.Named("api.post"))
		RegisterSchedulerRoutes(r, cfg.Jobs, cfg.Log.Named("api.scheduler"))
	})

	return r
}

// requestLogger logs one line per request with zap
func requestLogger(log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Infow("request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", chiMiddleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
