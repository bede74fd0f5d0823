package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/buildrelay/internal/middleware"
)

// MountRoutes registers the relay routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	r.Get("/health", h.Health)

	buffered := r.With(middleware.BufferBody(h.Config.Server.MaxBodyBytes))
	buffered.Post("/webhook", h.HandleRelayWebhook)
	buffered.Post("/api/v1/webhooks/relay", h.HandleRelayWebhook)
}
