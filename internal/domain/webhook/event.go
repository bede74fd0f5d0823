// Package webhook defines the inbound webhook event types and the lenient
// decoders that turn raw payloads into them.
package webhook

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// InboundEvent is the raw inbound request: body bytes exactly as received plus
// the request headers. It is built once per request and never mutated.
type InboundEvent struct {
	RawBody []byte
	Headers http.Header
}

// Header returns the first value of the named header, or "".
func (e InboundEvent) Header(name string) string {
	if e.Headers == nil {
		return ""
	}
	return e.Headers.Get(name)
}

// BuildNotification is the normalized build-completion event.
// Every field is optional; a missing field is the empty string.
type BuildNotification struct {
	Status        string `json:"status"`
	BuildURL      string `json:"build_url"`
	GitRef        string `json:"git_ref"`
	CommitMessage string `json:"commit_message"`
	Profile       string `json:"profile"`
}

// CommitSummary returns the first non-empty line of the commit message.
func (n BuildNotification) CommitSummary() string {
	for _, line := range strings.Split(n.CommitMessage, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			return s
		}
	}
	return ""
}

// ReviewEvent is the normalized pull request event used by the linker flow.
type ReviewEvent struct {
	Action      string `json:"action"`
	Number      int    `json:"number"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	Branch      string `json:"branch"`
	HTMLURL     string `json:"html_url"`
	CommentsURL string `json:"comments_url"`
	Repository  string `json:"repository"`
}

// DecodeBuild extracts a BuildNotification from a raw build-pipeline payload.
// Malformed or non-object JSON yields the zero value; it never fails.
func DecodeBuild(raw []byte) BuildNotification {
	doc := decodeObject(raw)
	return BuildNotification{
		Status:        firstString(doc, "status", "event"),
		BuildURL:      firstString(doc, "buildDetailsPageUrl", "build.detailsPageUrl"),
		GitRef:        firstString(doc, "gitRef", "metadata.gitRef", "metadata.appVersion"),
		CommitMessage: firstString(doc, "metadata.commitMessage"),
		Profile:       firstString(doc, "metadata.buildProfile", "metadata.appBuildProfile", "metadata.profile"),
	}
}

// DecodeReview extracts a ReviewEvent from a GitHub pull_request payload.
// Like DecodeBuild it degrades to zero values instead of failing.
func DecodeReview(raw []byte) ReviewEvent {
	doc := decodeObject(raw)
	ev := ReviewEvent{
		Action:      firstString(doc, "action"),
		Title:       firstString(doc, "pull_request.title"),
		Body:        firstString(doc, "pull_request.body"),
		Branch:      firstString(doc, "pull_request.head.ref"),
		HTMLURL:     firstString(doc, "pull_request.html_url"),
		CommentsURL: firstString(doc, "pull_request.comments_url"),
		Repository:  firstString(doc, "repository.full_name"),
	}
	if n, err := strconv.Atoi(firstString(doc, "number", "pull_request.number")); err == nil {
		ev.Number = n
	}
	return ev
}

func decodeObject(raw []byte) map[string]any {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil || doc == nil {
		return map[string]any{}
	}
	return doc
}

// firstString returns the first non-empty scalar found at any of the dotted
// paths, rendered as a string.
func firstString(doc map[string]any, paths ...string) string {
	for _, p := range paths {
		if s := lookup(doc, strings.Split(p, ".")); s != "" {
			return s
		}
	}
	return ""
}

func lookup(doc map[string]any, keys []string) string {
	var cur any = doc
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = m[k]
	}
	switch v := cur.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}
