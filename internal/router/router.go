// Package router sets up all HTTP routes and middleware chains for the
// Guide de Lyon API. Routes are organized into a public group and an
// API-key-protected admin group.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"lyonguide/internal/handlers"
	"lyonguide/internal/middleware"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up. commentLimiter throttles unauthenticated
// comment submissions.
func New(public *handlers.Public, admin *handlers.Admin, adminKey string, commentLimiter *middleware.RateLimiter) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	// Health check.
	r.Get("/health", healthHandler)

	// Public read API.
	r.Route("/api", func(r chi.Router) {
		r.Get("/articles", public.ListArticles)
		r.Route("/articles/{slug}", func(r chi.Router) {
			r.Get("/", public.GetArticle)
			r.Get("/related", public.RelatedArticles)
			r.Get("/comments", public.ListComments)
			r.With(commentLimiter.Middleware).Post("/comments", public.CreateComment)
		})
		r.Get("/categories", public.ListCategories)
		r.Get("/tags", public.ListTags)
		r.Get("/authors/{id}", public.GetAuthor)
	})

	// Admin API, guarded by X-API-Key.
	r.Route("/admin/api", func(r chi.Router) {
		r.Use(middleware.RequireKey(adminKey))

		r.Route("/articles", func(r chi.Router) {
			r.Get("/", admin.ListArticles)
			r.Post("/", admin.CreateArticle)
			r.Get("/{id}", admin.GetArticle)
			r.Put("/{id}", admin.UpdateArticle)
			r.Delete("/{id}", admin.DeleteArticle)
			r.Post("/{id}/suggest", admin.SuggestDraft)
			r.Get("/{id}/drafts", admin.ListDrafts)
			r.Post("/{id}/drafts", admin.CreateDraft)
		})

		r.Route("/drafts", func(r chi.Router) {
			r.Post("/{id}/apply", admin.ApplyDraft)
			r.Delete("/{id}", admin.DiscardDraft)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", admin.ListCategories)
			r.Post("/", admin.CreateCategory)
			r.Put("/{id}", admin.UpdateCategory)
			r.Delete("/{id}", admin.DeleteCategory)
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", admin.ListTags)
			r.Post("/", admin.CreateTag)
			r.Put("/{id}", admin.UpdateTag)
			r.Delete("/{id}", admin.DeleteTag)
		})

		r.Route("/authors", func(r chi.Router) {
			r.Get("/", admin.ListAuthors)
			r.Post("/", admin.CreateAuthor)
			r.Put("/{id}", admin.UpdateAuthor)
			r.Delete("/{id}", admin.DeleteAuthor)
		})

		r.Route("/comments", func(r chi.Router) {
			r.Get("/", admin.ListComments)
			r.Post("/{id}/status", admin.SetCommentStatus)
			r.Delete("/{id}", admin.DeleteComment)
		})

		r.Post("/media", admin.UploadMedia)
		r.Get("/media/*", admin.GetMedia)
		r.Delete("/media/*", admin.DeleteMedia)

		r.Route("/ai", func(r chi.Router) {
			r.Get("/providers", admin.AIProviders)
			r.Post("/provider", admin.SetAIProvider)
		})
	})

	return r
}

// NewRateLimiter builds the comment submission limiter with the defaults
// used in production: 5 submissions per minute per IP.
func NewRateLimiter() *middleware.RateLimiter {
	return middleware.NewRateLimiter(5, time.Minute)
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
