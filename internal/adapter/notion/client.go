// Package notion implements workspace.Workspace against the Notion REST API.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Strob0t/buildrelay/internal/port/workspace"
)

// searchPageSize bounds the search request; only the first hit is used.
const searchPageSize = 10

// Client talks to one Notion integration.
type Client struct {
	baseURL    string
	token      string
	version    string
	httpClient *http.Client
}

// NewClient creates a Notion client. baseURL includes the version path
// (e.g. https://api.notion.com/v1). A nil client falls back to
// http.DefaultClient.
func NewClient(baseURL, token, version string, client *http.Client) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		version:    version,
		httpClient: client,
	}
}

type searchFilter struct {
	Value    string `json:"value"`
	Property string `json:"property"`
}

type searchRequest struct {
	Query    string       `json:"query"`
	Filter   searchFilter `json:"filter"`
	PageSize int          `json:"page_size"`
}

type searchResponse struct {
	Results []workspace.Page `json:"results"`
}

// Search runs POST /search restricted to pages.
func (c *Client) Search(ctx context.Context, query string) ([]workspace.Page, error) {
	payload := searchRequest{
		Query:    query,
		Filter:   searchFilter{Value: "page", Property: "object"},
		PageSize: searchPageSize,
	}

	body, err := c.doRequest(ctx, http.MethodPost, c.baseURL+"/search", payload)
	if err != nil {
		return nil, fmt.Errorf("notion search: %w", err)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("notion parse search: %w", err)
	}
	return resp.Results, nil
}

// richText mirrors one Notion rich text object.
type richText struct {
	PlainText string `json:"plain_text"`
	Href      string `json:"href"`
	Text      *struct {
		Content string `json:"content"`
		Link    *struct {
			URL string `json:"url"`
		} `json:"link"`
	} `json:"text"`
}

func (r richText) fragment() workspace.Fragment {
	f := workspace.Fragment{PlainText: r.PlainText, Href: r.Href}
	if r.Text != nil {
		f.Content = r.Text.Content
		if r.Text.Link != nil {
			f.LinkURL = r.Text.Link.URL
		}
	}
	return f
}

type childrenResponse struct {
	Results []json.RawMessage `json:"results"`
}

// Children runs GET /blocks/{id}/children for the first page only.
func (c *Client) Children(ctx context.Context, recordID string, pageSize int) ([]workspace.Block, error) {
	q := url.Values{}
	q.Set("page_size", strconv.Itoa(pageSize))
	reqURL := fmt.Sprintf("%s/blocks/%s/children?%s", c.baseURL, url.PathEscape(recordID), q.Encode())

	body, err := c.doRequest(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("notion children: %w", err)
	}

	var resp childrenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("notion parse children: %w", err)
	}

	blocks := make([]workspace.Block, 0, len(resp.Results))
	for _, raw := range resp.Results {
		b, ok := parseBlock(raw)
		if ok {
			blocks = append(blocks, b)
		}
	}
	return blocks, nil
}

// parseBlock reads the rich_text array stored under the key named by the
// block's type. Blocks without rich text keep an empty fragment list.
func parseBlock(raw json.RawMessage) (workspace.Block, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return workspace.Block{}, false
	}

	var b workspace.Block
	_ = json.Unmarshal(fields["id"], &b.ID)
	_ = json.Unmarshal(fields["type"], &b.Type)

	content, ok := fields[b.Type]
	if !ok || b.Type == "" {
		return b, true
	}
	var typed struct {
		RichText []richText `json:"rich_text"`
	}
	if err := json.Unmarshal(content, &typed); err != nil {
		return b, true
	}
	for _, rt := range typed.RichText {
		b.Fragments = append(b.Fragments, rt.fragment())
	}
	return b, true
}

type textLink struct {
	URL string `json:"url"`
}

type textContent struct {
	Content string    `json:"content"`
	Link    *textLink `json:"link,omitempty"`
}

type richTextInput struct {
	Type string      `json:"type"`
	Text textContent `json:"text"`
}

type paragraph struct {
	RichText []richTextInput `json:"rich_text"`
}

type blockInput struct {
	Object    string    `json:"object"`
	Type      string    `json:"type"`
	Paragraph paragraph `json:"paragraph"`
}

type appendRequest struct {
	Children []blockInput `json:"children"`
}

// AppendReference runs PATCH /blocks/{id}/children with one paragraph:
// "<label> " followed by link hyperlinked to itself.
func (c *Client) AppendReference(ctx context.Context, recordID, label, link string) error {
	var parts []richTextInput
	if label != "" {
		parts = append(parts, richTextInput{Type: "text", Text: textContent{Content: label + " "}})
	}
	parts = append(parts, richTextInput{Type: "text", Text: textContent{Content: link, Link: &textLink{URL: link}}})

	payload := appendRequest{
		Children: []blockInput{{
			Object:    "block",
			Type:      "paragraph",
			Paragraph: paragraph{RichText: parts},
		}},
	}

	reqURL := fmt.Sprintf("%s/blocks/%s/children", c.baseURL, url.PathEscape(recordID))
	if _, err := c.doRequest(ctx, http.MethodPatch, reqURL, payload); err != nil {
		return fmt.Errorf("notion append: %w", err)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, reqURL string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", c.version)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req) //nolint:gosec // G704: URL is built from the configured API base
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("notion API %d: %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}
