// Package workspace defines the port interface for the task workspace that
// holds work-item pages (Notion and compatible APIs).
package workspace

import (
	"context"
	"strings"
)

// Page is a search hit.
type Page struct {
	ID     string `json:"id"`
	Object string `json:"object"` // "page", "database", ...
	URL    string `json:"url,omitempty"`
}

// Fragment is one rich-text run of a block.
type Fragment struct {
	PlainText string `json:"plain_text,omitempty"`
	Content   string `json:"content,omitempty"`
	LinkURL   string `json:"link_url,omitempty"`
	Href      string `json:"href,omitempty"`
}

// Contains reports whether any textual part of the fragment contains s.
// An empty s never matches.
func (f Fragment) Contains(s string) bool {
	if s == "" {
		return false
	}
	for _, v := range []string{f.PlainText, f.Content, f.LinkURL, f.Href} {
		if strings.Contains(v, s) {
			return true
		}
	}
	return false
}

// Block is a child content block of a page.
type Block struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Fragments []Fragment `json:"fragments"`
}

// Contains reports whether any fragment of the block contains s.
func (b Block) Contains(s string) bool {
	for _, f := range b.Fragments {
		if f.Contains(s) {
			return true
		}
	}
	return false
}

// Workspace is the port interface for the task workspace.
type Workspace interface {
	// Search runs a free-text page search. Result order is the remote
	// system's relevance order.
	Search(ctx context.Context, query string) ([]Page, error)

	// Children returns the first page of child blocks of a record.
	Children(ctx context.Context, recordID string, pageSize int) ([]Block, error)

	// AppendReference appends one block to a record carrying label as plain
	// text followed by url as a hyperlink.
	AppendReference(ctx context.Context, recordID, label, url string) error
}
