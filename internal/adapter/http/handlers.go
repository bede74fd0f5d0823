package http

import (
	"net/http"

	"github.com/Strob0t/buildrelay/internal/config"
	"github.com/Strob0t/buildrelay/internal/domain/webhook"
	"github.com/Strob0t/buildrelay/internal/middleware"
	"github.com/Strob0t/buildrelay/internal/service"
)

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	Relay   *service.RelayService
	Config  *config.Config
	Version string
}

// HandleRelayWebhook runs one build or pull request event through the relay.
// The raw body must have been buffered by middleware.BufferBody.
func (h *Handlers) HandleRelayWebhook(w http.ResponseWriter, r *http.Request) {
	ev := webhook.InboundEvent{
		RawBody: middleware.RawBody(r.Context()),
		Headers: r.Header.Clone(),
	}

	out, err := h.Relay.Handle(r.Context(), ev)
	if err != nil {
		writeRelayError(w, r, out, err)
		return
	}

	if out.State == service.StateSkipped && out.Explicit {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type healthResponse struct {
	Status                string      `json:"status"`
	Version               string      `json:"version,omitempty"`
	Mode                  config.Mode `json:"mode"`
	DestinationConfigured bool        `json:"destination_configured"`
	WorkspaceConfigured   bool        `json:"workspace_configured"`
	SignatureRequired     bool        `json:"signature_required"`
}

// Health reports liveness and which destinations are configured. It never
// echoes secrets or URLs.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:                "ok",
		Version:               h.Version,
		Mode:                  h.Config.Relay.Mode,
		DestinationConfigured: h.Config.MissingDestination() == "",
		WorkspaceConfigured:   h.Config.WorkspaceConfigured(),
		SignatureRequired:     h.Config.Relay.Secret != "",
	})
}
