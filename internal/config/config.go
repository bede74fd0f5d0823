// Package config provides hierarchical configuration loading for buildrelay.
// Precedence: defaults < YAML file < environment variables < CLI flags.
package config

import (
	"time"

	"github.com/Strob0t/buildrelay/internal/domain/workitem"
)

// Mode selects the single outbound action class of a deployment.
type Mode string

const (
	ModeNotify   Mode = "notify"   // chat message
	ModeDispatch Mode = "dispatch" // CI repository_dispatch
	ModeComment  Mode = "comment"  // review-thread comment (linker flow)
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeNotify, ModeDispatch, ModeComment:
		return true
	}
	return false
}

// Config holds all runtime configuration for the relay. It is built once at
// startup and treated as read-only afterwards.
type Config struct {
	Server    Server    `yaml:"server"`
	Logging   Logging   `yaml:"logging"`
	Telemetry Telemetry `yaml:"telemetry"`
	HTTP      HTTP      `yaml:"http"`
	Relay     Relay     `yaml:"relay"`
	Chat      Chat      `yaml:"chat"`
	Dispatch  Dispatch  `yaml:"dispatch"`
	Workspace Workspace `yaml:"workspace"`
	Review    Review    `yaml:"review"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port         string `yaml:"port"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
}

// Telemetry holds OpenTelemetry export configuration. An empty endpoint
// keeps the global no-op providers.
type Telemetry struct {
	Endpoint    string `yaml:"endpoint"` // OTLP gRPC host:port
	Insecure    bool   `yaml:"insecure"`
	ServiceName string `yaml:"service_name"`
}

// HTTP holds outbound client configuration shared by every adapter.
type HTTP struct {
	Timeout time.Duration `yaml:"timeout"`
}

// Relay holds inbound verification and routing configuration.
type Relay struct {
	Mode             Mode   `yaml:"mode"`
	Secret           string `yaml:"secret"` //nolint:gosec // G117: config field name, not a hardcoded secret
	SignatureHeader  string `yaml:"signature_header"`
	ProfileFilter    string `yaml:"profile_filter"`  // empty disables filtering
	DefaultProfile   string `yaml:"default_profile"` // assumed when the event declares none
	IdentifierPrefix string `yaml:"identifier_prefix"`
	Concurrency      int    `yaml:"concurrency"` // max parallel lookups / annotations per request
}

// Chat holds the chat notifier configuration (notify mode).
type Chat struct {
	Provider   string `yaml:"provider"` // "slack" | "discord"
	WebhookURL string `yaml:"webhook_url"`
}

// Dispatch holds the CI repository-events configuration (dispatch mode).
type Dispatch struct {
	URL       string `yaml:"url"`
	Token     string `yaml:"token"` //nolint:gosec // G117: config field name
	EventType string `yaml:"event_type"`
}

// Workspace holds the task workspace API configuration.
type Workspace struct {
	APIURL      string `yaml:"api_url"`
	Token       string `yaml:"token"` //nolint:gosec // G117: config field name
	Version     string `yaml:"version"`
	Domain      string `yaml:"domain"`
	PageBaseURL string `yaml:"page_base_url"`
	PageSize    int    `yaml:"page_size"`
}

// Review holds the review-tool API configuration (comment mode).
type Review struct {
	APIURL string `yaml:"api_url"`
	Token  string `yaml:"token"` //nolint:gosec // G117: config field name
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:         "8080",
			MaxBodyBytes: 1 << 20,
		},
		Logging: Logging{
			Level:   "info",
			Service: "buildrelay",
		},
		Telemetry: Telemetry{
			ServiceName: "buildrelay",
		},
		HTTP: HTTP{
			Timeout: 10 * time.Second,
		},
		Relay: Relay{
			Mode:             ModeNotify,
			IdentifierPrefix: workitem.DefaultPrefix,
			Concurrency:      4,
		},
		Chat: Chat{
			Provider: "slack",
		},
		Dispatch: Dispatch{
			EventType: "build-finished",
		},
		Workspace: Workspace{
			APIURL:      "https://api.notion.com/v1",
			Version:     "2022-06-28",
			Domain:      workitem.DefaultDomain,
			PageBaseURL: "https://www.notion.so",
			PageSize:    100,
		},
		Review: Review{
			APIURL: "https://api.github.com",
		},
	}
}

// EffectiveSignatureHeader returns the configured signature header or the
// conventional header of the mode's event source.
func (c *Config) EffectiveSignatureHeader() string {
	if c.Relay.SignatureHeader != "" {
		return c.Relay.SignatureHeader
	}
	if c.Relay.Mode == ModeComment {
		return "X-Hub-Signature-256"
	}
	return "expo-signature"
}

// WorkspaceConfigured reports whether workspace calls can be made.
func (c *Config) WorkspaceConfigured() bool {
	return c.Workspace.APIURL != "" && c.Workspace.Token != ""
}

// MissingDestination returns the name of the first setting the configured
// mode requires but lacks, or "" when the destination is fully configured.
func (c *Config) MissingDestination() string {
	switch c.Relay.Mode {
	case ModeNotify:
		if c.Chat.WebhookURL == "" {
			return "chat.webhook_url"
		}
	case ModeDispatch:
		if c.Dispatch.URL == "" {
			return "dispatch.url"
		}
		if c.Dispatch.Token == "" {
			return "dispatch.token"
		}
	case ModeComment:
		if c.Review.Token == "" {
			return "review.token"
		}
	}
	return ""
}
