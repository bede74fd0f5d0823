// Package github implements a gitprovider.Provider for the GitHub REST API:
// repository_dispatch events and pull request (issue) comments.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/Strob0t/buildrelay/internal/port/gitprovider"
)

const (
	providerName = "github"
	apiVersion   = "2022-11-28"
	acceptHeader = "application/vnd.github+json"
)

// Provider implements gitprovider.Provider using bearer-token auth.
type Provider struct {
	token      string
	httpClient *http.Client
}

// NewProvider creates a GitHub provider. A nil client falls back to
// http.DefaultClient.
func NewProvider(token string, client *http.Client) *Provider {
	if client == nil {
		client = http.DefaultClient
	}
	return &Provider{
		token:      token,
		httpClient: client,
	}
}

func (p *Provider) Name() string { return providerName }

// DispatchEvent posts a repository_dispatch event. GitHub answers 204.
func (p *Provider) DispatchEvent(ctx context.Context, endpoint string, ev gitprovider.RepositoryEvent) error {
	if err := p.post(ctx, endpoint, ev); err != nil {
		return fmt.Errorf("github dispatch: %w", err)
	}
	return nil
}

type commentRequest struct {
	Body string `json:"body"`
}

// CreateComment posts body to an issue comments collection URL.
func (p *Provider) CreateComment(ctx context.Context, commentsURL, body string) error {
	if err := p.post(ctx, commentsURL, commentRequest{Body: body}); err != nil {
		return fmt.Errorf("github comment: %w", err)
	}
	return nil
}

func (p *Provider) post(ctx context.Context, reqURL string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.httpClient.Do(req) //nolint:gosec // G704: URL comes from config or a verified webhook payload
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("github API %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
