package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(ed Editor, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(ed)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Document state.
	r.Get("/document", h.GetDocument)
	r.Post("/mutations", h.ApplyMutation)
	r.Post("/undo", h.Undo)
	r.Post("/reset", h.Reset)
	r.Put("/theme", h.SetTheme)

	// Pagination.
	r.Post("/pagination", h.ReportPagination)

	// Print export.
	r.Get("/print", h.PrintView)
	r.Get("/print.pdf", h.PrintPDF)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
