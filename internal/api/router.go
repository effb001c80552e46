package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/raido/internal/toolservice"
)

// NewRouter creates a chi router with all API routes mounted.
// Read endpoints are public; mutating endpoints sit behind Bearer auth
// when authEnabled is true. sseHandler, if non-nil, is mounted at
// GET /events.
func NewRouter(svc *toolservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)
	auth := AuthMiddleware(authEnabled, token)

	r := chi.NewRouter()

	// Public reads.
	r.Get("/settings", h.GetSettings)
	r.Get("/search", h.Search)
	r.Get("/tools/{toolID}", h.GetTool)
	r.Get("/tools/{toolID}/tags", h.ListTags)

	// View counting is public: the browsing UI fires it anonymously.
	r.Post("/tools/{toolID}/view", h.RecordView)

	// Admin mutations.
	r.Group(func(r chi.Router) {
		r.Use(auth)
		r.Post("/tools", h.CreateTool)
		r.Put("/tools/{toolID}", h.UpdateTool)
		r.Delete("/tools/{toolID}", h.DeleteTool)
		r.Post("/tools/{toolID}/tags", h.AddTag)
		r.Delete("/tools/{toolID}/tags/{tagID}", h.RemoveTag)
		r.Put("/categories/order", h.ReorderCategories)
	})

	// SSE endpoint for catalog change events.
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
