package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Strob0t/buildrelay/internal/config"
	"github.com/Strob0t/buildrelay/internal/domain"
	"github.com/Strob0t/buildrelay/internal/domain/webhook"
	"github.com/Strob0t/buildrelay/internal/domain/workitem"
	"github.com/Strob0t/buildrelay/internal/port/gitprovider"
	"github.com/Strob0t/buildrelay/internal/port/notifier"
)

// Dispatcher performs the single outbound action of the configured mode.
type Dispatcher struct {
	mode         config.Mode
	chat         notifier.Notifier
	git          gitprovider.Provider
	dispatchURL  string
	eventType    string
	reviewAPIURL string
	timeout      time.Duration
}

// NewDispatcher creates a Dispatcher. Only the collaborator used by cfg's
// mode needs to be non-nil.
func NewDispatcher(cfg *config.Config, chat notifier.Notifier, git gitprovider.Provider) *Dispatcher {
	return &Dispatcher{
		mode:         cfg.Relay.Mode,
		chat:         chat,
		git:          git,
		dispatchURL:  cfg.Dispatch.URL,
		eventType:    cfg.Dispatch.EventType,
		reviewAPIURL: strings.TrimSuffix(cfg.Review.APIURL, "/"),
		timeout:      cfg.HTTP.Timeout,
	}
}

// Ready reports whether the collaborator for the configured mode is present.
func (d *Dispatcher) Ready() bool {
	switch d.mode {
	case config.ModeNotify:
		return d.chat != nil
	case config.ModeDispatch, config.ModeComment:
		return d.git != nil
	}
	return false
}

func (d *Dispatcher) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d.timeout)
}

// DispatchBuild sends a build notification as a chat message (notify mode)
// or as a repository event (dispatch mode).
func (d *Dispatcher) DispatchBuild(ctx context.Context, n webhook.BuildNotification, records []workitem.Record) error {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	switch d.mode {
	case config.ModeNotify:
		if err := d.chat.Send(ctx, ComposeNotification(n, records)); err != nil {
			return fmt.Errorf("%w: %s: %w", domain.ErrDispatch, d.chat.Name(), err)
		}
	case config.ModeDispatch:
		ev := gitprovider.RepositoryEvent{
			EventType:     d.eventType,
			ClientPayload: newBuildPayload(n, records),
		}
		if err := d.git.DispatchEvent(ctx, d.dispatchURL, ev); err != nil {
			return fmt.Errorf("%w: %s: %w", domain.ErrDispatch, d.git.Name(), err)
		}
	default:
		return fmt.Errorf("%w: mode %q cannot relay build events", domain.ErrConfiguration, d.mode)
	}
	return nil
}

// DispatchReview posts the linked records as one comment on the pull
// request. It reports false without calling out when there is nothing to
// link.
func (d *Dispatcher) DispatchReview(ctx context.Context, ev webhook.ReviewEvent, records []workitem.Record) (bool, error) {
	if len(records) == 0 {
		return false, nil
	}

	commentsURL := ev.CommentsURL
	if commentsURL != "" && !sameOrigin(commentsURL, d.reviewAPIURL) {
		return false, fmt.Errorf("%w: comments url %q is outside the review api", domain.ErrDispatch, commentsURL)
	}
	if commentsURL == "" {
		if ev.Repository == "" || ev.Number == 0 {
			return false, fmt.Errorf("%w: event carries no comments url", domain.ErrDispatch)
		}
		commentsURL = fmt.Sprintf("%s/repos/%s/issues/%d/comments", d.reviewAPIURL, ev.Repository, ev.Number)
	}

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	if err := d.git.CreateComment(ctx, commentsURL, ComposeComment(records)); err != nil {
		return false, fmt.Errorf("%w: %s: %w", domain.ErrDispatch, d.git.Name(), err)
	}
	return true, nil
}

// sameOrigin reports whether raw shares scheme and host with base. The
// review token is only ever sent to the configured API.
func sameOrigin(raw, base string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	b, err := url.Parse(base)
	if err != nil {
		return false
	}
	return u.Host != "" && strings.EqualFold(u.Scheme, b.Scheme) && strings.EqualFold(u.Host, b.Host)
}

// ComposeNotification renders the chat message. The status line is always
// present; every other line is omitted when its value is empty.
func ComposeNotification(n webhook.BuildNotification, records []workitem.Record) notifier.Notification {
	status := n.Status
	if status == "" {
		status = "unknown"
	}

	var lines []string
	add := func(label, value string) {
		if value != "" {
			lines = append(lines, label+": "+value)
		}
	}
	add("Branch", n.GitRef)
	add("Profile", n.Profile)
	add("Build", n.BuildURL)
	add("Task", taskLinks(records))
	add("Commit", n.CommitSummary())

	return notifier.Notification{
		Title: "Build status: " + status,
		Lines: lines,
		Level: statusLevel(n.Status),
		Link:  n.BuildURL,
	}
}

func taskLinks(records []workitem.Record) string {
	parts := make([]string, 0, len(records))
	for _, r := range records {
		parts = append(parts, r.Label()+" "+r.DisplayURL)
	}
	return strings.Join(parts, ", ")
}

func statusLevel(status string) notifier.Level {
	switch strings.ToLower(status) {
	case "finished", "success", "succeeded":
		return notifier.LevelSuccess
	case "errored", "failed", "failure":
		return notifier.LevelError
	case "canceled", "cancelled":
		return notifier.LevelWarning
	default:
		return notifier.LevelInfo
	}
}

// ComposeComment renders one bullet per record display URL.
func ComposeComment(records []workitem.Record) string {
	var b strings.Builder
	for i, r := range records {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(r.DisplayURL)
	}
	return b.String()
}

// recordRef is the compact record shape carried in repository events.
type recordRef struct {
	ID  workitem.CanonicalID `json:"id"`
	URL string               `json:"url"`
}

// buildPayload is the client_payload of a repository event.
type buildPayload struct {
	Status        string      `json:"status"`
	BuildURL      string      `json:"build_url"`
	GitRef        string      `json:"git_ref"`
	CommitMessage string      `json:"commit_message"`
	Profile       string      `json:"profile"`
	Records       []recordRef `json:"records"`
}

func newBuildPayload(n webhook.BuildNotification, records []workitem.Record) buildPayload {
	refs := make([]recordRef, 0, len(records))
	for _, r := range records {
		refs = append(refs, recordRef{ID: r.ID, URL: r.DisplayURL})
	}
	return buildPayload{
		Status:        n.Status,
		BuildURL:      n.BuildURL,
		GitRef:        n.GitRef,
		CommitMessage: n.CommitMessage,
		Profile:       n.Profile,
		Records:       refs,
	}
}
