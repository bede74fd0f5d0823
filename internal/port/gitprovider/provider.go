// Package gitprovider defines the port for the source-control host that
// receives CI re-dispatch events and review-thread comments.
package gitprovider

import "context"

// RepositoryEvent is a custom CI trigger event.
type RepositoryEvent struct {
	EventType     string `json:"event_type"`
	ClientPayload any    `json:"client_payload"`
}

// Provider is the port interface for the git hosting platform.
type Provider interface {
	// Name returns the unique identifier for this provider (e.g. "github").
	Name() string

	// DispatchEvent posts ev to the repository-events endpoint.
	DispatchEvent(ctx context.Context, endpoint string, ev RepositoryEvent) error

	// CreateComment posts body to a review thread's comment collection.
	CreateComment(ctx context.Context, commentsURL, body string) error
}
