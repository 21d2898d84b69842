package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Init builds the control API router.
func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer, h.withTraceID, h.withLogging)

	router.Group(func(r chi.Router) {
		r.Get("/api/version", h.getVersion)
		r.Put("/api/session", h.putSession)
		r.With(withGZip).Get("/api/status", h.getStatus)
		r.With(withGZip).Get("/api/tombstones", h.getTombstones)
	})

	// routes that reach the remote store
	router.Group(func(r chi.Router) {
		r.Use(h.requireSession)
		r.Post("/api/sync", h.fullSync)
		r.Post("/api/migrate", h.startMigration)
		r.Get("/api/records/{collection}/{id}/state", h.getRecordState)
	})

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
