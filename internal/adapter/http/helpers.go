package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Strob0t/buildrelay/internal/domain"
	"github.com/Strob0t/buildrelay/internal/service"
)

type errorResponse struct {
	Error string        `json:"error"`
	State service.State `json:"state,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// relayStatus maps a relay error to its HTTP status and client message.
func relayStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrAuthentication):
		return http.StatusUnauthorized, "invalid webhook signature"
	case errors.Is(err, domain.ErrConfiguration):
		return http.StatusInternalServerError, "relay is not configured for this mode"
	case errors.Is(err, domain.ErrDispatch):
		return http.StatusInternalServerError, "dispatch failed"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// writeRelayError logs the underlying error server-side and answers with a
// generic message. Secrets and downstream responses never reach the client.
func writeRelayError(w http.ResponseWriter, r *http.Request, out *service.Outcome, err error) {
	status, msg := relayStatus(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "relay failed", "error", err)
	}
	resp := errorResponse{Error: msg}
	if out != nil {
		resp.State = out.State
	}
	writeJSON(w, status, resp)
}
