package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/echovault/internal/syncservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *syncservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Sync control.
	r.Post("/sync", h.Sync)
	r.Get("/status", h.Status)
	r.Get("/pending", h.Pending)

	// Daily notes.
	r.Get("/daily/{date}", h.Daily)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
