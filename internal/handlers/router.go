package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/vaughan-dsouza/board/internal/metrics"
	"github.com/vaughan-dsouza/board/internal/middleware"
)

// RouterDeps collects what NewRouter wires together.
type RouterDeps struct {
	Handler  *Handler
	Resolver middleware.Resolver
	Logger   *slog.Logger

	// Metrics and Gatherer are optional; without them /metrics is not served.
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer

	// RateLimiter is optional; nil disables the per-account budget on /posts.
	RateLimiter *middleware.RateLimiter
}

// NewRouter builds the chi router.
//
// Middleware order: Logging → Metrics → Recovery on every route, then
// Authenticate (and the rate limiter on /posts) on the protected group.
// Recovery sits inside the recorders so a recovered panic is logged and
// counted as the 500 it becomes.
func NewRouter(deps RouterDeps) http.Handler {
	h := deps.Handler
	r := chi.NewRouter()

	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}
	r.Use(middleware.NewRecoveryMiddleware(deps.Logger))

	// Public
	r.Post("/register", h.Auth.Register)
	r.Post("/login", h.Auth.Login)
	r.Post("/refresh", h.Auth.Refresh)
	r.Get("/healthz", h.Health.Healthz)
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	// Protected
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(deps.Resolver))

		r.Get("/me", h.Auth.Me)
		r.Post("/logout", h.Auth.Logout)

		r.Group(func(r chi.Router) {
			if deps.RateLimiter != nil {
				r.Use(deps.RateLimiter.Middleware())
			}

			r.Get("/posts", h.Posts.GetPosts)
			r.Post("/posts", h.Posts.CreatePost)
			r.Put("/posts", h.Posts.UpdatePost)
			r.Delete("/posts", h.Posts.DeletePost)
			r.Get("/posts/{id}", h.Posts.GetPostByID)
		})
	})

	return r
}
