// Package notifier defines the chat notification port (interface).
package notifier

import (
	"context"
	"errors"
	"strings"
)

// ErrNotConfigured is returned when a notifier has no destination URL.
var ErrNotConfigured = errors.New("notifier: not configured")

// Level classifies a notification for adapters that render it (colors, icons).
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is the payload sent through a Notifier.
type Notification struct {
	Title string   `json:"title"`
	Lines []string `json:"lines"` // detail lines; empty lines are never rendered
	Level Level    `json:"level"`
	Link  string   `json:"link,omitempty"`
}

// Body joins the detail lines.
func (n Notification) Body() string {
	return strings.Join(n.Lines, "\n")
}

// Text renders the notification as one plain-text message.
func (n Notification) Text() string {
	if len(n.Lines) == 0 {
		return n.Title
	}
	return n.Title + "\n" + n.Body()
}

// Notifier is the port interface for sending chat notifications.
type Notifier interface {
	// Name returns the unique identifier for this notifier (e.g. "slack").
	Name() string

	// Send delivers a notification. A nil error means the destination
	// accepted it.
	Send(ctx context.Context, notification Notification) error
}
