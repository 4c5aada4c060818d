package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/reelforge/reelforge/internal/api/middleware"
	"github.com/reelforge/reelforge/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler http.HandlerFunc

	CreateChat   http.HandlerFunc
	ListChats    http.HandlerFunc
	GetChat      http.HandlerFunc
	PostMessage  http.HandlerFunc
	ListMessages http.HandlerFunc

	StartProduction  http.HandlerFunc
	RequestRevision  http.HandlerFunc
	CancelProduction http.HandlerFunc
	GetVideo         http.HandlerFunc
	ListVideos       http.HandlerFunc
	LockStatus       http.HandlerFunc

	Upload http.HandlerFunc

	ForceUnlock http.HandlerFunc
	CreateKey   http.HandlerFunc
	ListKeys    http.HandlerFunc
	RevokeKey   http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public health check
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.RateLimit.Limit)

		r.Post("/api/v1/chats", orNotImplemented(deps.CreateChat))
		r.Get("/api/v1/chats", orNotImplemented(deps.ListChats))
		r.Get("/api/v1/chats/{chatID}", orNotImplemented(deps.GetChat))

		r.Post("/api/v1/chats/{chatID}/messages", orNotImplemented(deps.PostMessage))
		r.Get("/api/v1/chats/{chatID}/messages", orNotImplemented(deps.ListMessages))

		r.Post("/api/v1/chats/{chatID}/productions", orNotImplemented(deps.StartProduction))
		r.Post("/api/v1/chats/{chatID}/revisions", orNotImplemented(deps.RequestRevision))
		r.Get("/api/v1/chats/{chatID}/videos", orNotImplemented(deps.ListVideos))
		r.Get("/api/v1/chats/{chatID}/videos/{videoID}", orNotImplemented(deps.GetVideo))
		r.Post("/api/v1/chats/{chatID}/videos/{videoID}/cancel", orNotImplemented(deps.CancelProduction))
		r.Get("/api/v1/chats/{chatID}/lock", orNotImplemented(deps.LockStatus))

		r.Post("/api/v1/uploads", orNotImplemented(deps.Upload))

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.RequireScope("admin"))

			r.Post("/api/v1/admin/chats/{chatID}/force-unlock", orNotImplemented(deps.ForceUnlock))
			r.Post("/api/v1/admin/keys", orNotImplemented(deps.CreateKey))
			r.Get("/api/v1/admin/keys", orNotImplemented(deps.ListKeys))
			r.Delete("/api/v1/admin/keys/{keyID}", orNotImplemented(deps.RevokeKey))
		})
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
