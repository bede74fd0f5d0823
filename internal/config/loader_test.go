package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Relay.Mode != ModeNotify {
		t.Errorf("expected notify mode, got %s", cfg.Relay.Mode)
	}
	if cfg.Relay.IdentifierPrefix != "TASK" {
		t.Errorf("expected TASK prefix, got %s", cfg.Relay.IdentifierPrefix)
	}
	if cfg.HTTP.Timeout != 10*time.Second {
		t.Errorf("expected http timeout 10s, got %v", cfg.HTTP.Timeout)
	}
	if cfg.Workspace.PageSize != 100 {
		t.Errorf("expected page size 100, got %d", cfg.Workspace.PageSize)
	}
}

func TestLoadYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "test.yaml")

	content := `
server:
  port: "9090"
relay:
  mode: dispatch
  profile_filter: preview
dispatch:
  url: "https://api.github.com/repos/acme/app/dispatches"
logging:
  level: "debug"
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Relay.Mode != ModeDispatch {
		t.Errorf("expected dispatch mode, got %s", cfg.Relay.Mode)
	}
	if cfg.Relay.ProfileFilter != "preview" {
		t.Errorf("expected preview filter, got %s", cfg.Relay.ProfileFilter)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
	// Unchanged fields keep defaults
	if cfg.Dispatch.EventType != "build-finished" {
		t.Errorf("expected default event type, got %s", cfg.Dispatch.EventType)
	}
}

func TestLoadYAMLMissing(t *testing.T) {
	cfg := Defaults()
	err := loadYAML(&cfg, "/nonexistent/path.yaml")
	if err != nil {
		t.Errorf("missing YAML should not error, got %v", err)
	}
}

func TestLoadYAMLInvalid(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(yamlPath, []byte("server: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err == nil {
		t.Error("expected parse error for invalid YAML")
	}
}

func TestEnvOverride(t *testing.T) {
	cfg := Defaults()

	t.Setenv("BUILDRELAY_PORT", "7070")
	t.Setenv("BUILDRELAY_MODE", "comment")
	t.Setenv("BUILDRELAY_WEBHOOK_SECRET", "shh")
	t.Setenv("BUILDRELAY_HTTP_TIMEOUT", "3s")
	t.Setenv("BUILDRELAY_CONCURRENCY", "8")
	t.Setenv("NOTION_TOKEN", "secret_notion")
	t.Setenv("BUILDRELAY_LOG_ASYNC", "true")

	loadEnv(&cfg)

	if cfg.Server.Port != "7070" {
		t.Errorf("expected port 7070, got %s", cfg.Server.Port)
	}
	if cfg.Relay.Mode != ModeComment {
		t.Errorf("expected comment mode, got %s", cfg.Relay.Mode)
	}
	if cfg.Relay.Secret != "shh" {
		t.Errorf("expected secret from env, got %q", cfg.Relay.Secret)
	}
	if cfg.HTTP.Timeout != 3*time.Second {
		t.Errorf("expected timeout 3s, got %v", cfg.HTTP.Timeout)
	}
	if cfg.Relay.Concurrency != 8 {
		t.Errorf("expected concurrency 8, got %d", cfg.Relay.Concurrency)
	}
	if cfg.Workspace.Token != "secret_notion" {
		t.Errorf("expected workspace token from NOTION_TOKEN, got %q", cfg.Workspace.Token)
	}
	if !cfg.Logging.Async {
		t.Error("expected async logging enabled")
	}
}

func TestEnvSpecificOverridesConventional(t *testing.T) {
	cfg := Defaults()

	t.Setenv("SLACK_WEBHOOK_URL", "https://hooks.slack.com/generic")
	t.Setenv("BUILDRELAY_CHAT_WEBHOOK_URL", "https://hooks.slack.com/specific")
	t.Setenv("PORT", "1111")
	t.Setenv("BUILDRELAY_PORT", "2222")

	loadEnv(&cfg)

	if cfg.Chat.WebhookURL != "https://hooks.slack.com/specific" {
		t.Errorf("expected specific webhook url, got %s", cfg.Chat.WebhookURL)
	}
	if cfg.Server.Port != "2222" {
		t.Errorf("expected BUILDRELAY_PORT to win, got %s", cfg.Server.Port)
	}
}

func TestEnvInvalidValuesIgnored(t *testing.T) {
	cfg := Defaults()

	t.Setenv("BUILDRELAY_CONCURRENCY", "many")
	t.Setenv("BUILDRELAY_HTTP_TIMEOUT", "soon")

	loadEnv(&cfg)

	if cfg.Relay.Concurrency != 4 {
		t.Errorf("expected default concurrency, got %d", cfg.Relay.Concurrency)
	}
	if cfg.HTTP.Timeout != 10*time.Second {
		t.Errorf("expected default timeout, got %v", cfg.HTTP.Timeout)
	}
}

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{
			name:   "empty port",
			modify: func(c *Config) { c.Server.Port = "" },
			errMsg: "server.port is required",
		},
		{
			name:   "zero body limit",
			modify: func(c *Config) { c.Server.MaxBodyBytes = 0 },
			errMsg: "server.max_body_bytes must be >= 1",
		},
		{
			name:   "unknown mode",
			modify: func(c *Config) { c.Relay.Mode = "broadcast" },
			errMsg: `relay.mode "broadcast" must be one of notify, dispatch, comment`,
		},
		{
			name:   "zero concurrency",
			modify: func(c *Config) { c.Relay.Concurrency = 0 },
			errMsg: "relay.concurrency must be >= 1",
		},
		{
			name:   "page size too large",
			modify: func(c *Config) { c.Workspace.PageSize = 500 },
			errMsg: "workspace.page_size must be between 1 and 100",
		},
		{
			name:   "zero timeout",
			modify: func(c *Config) { c.HTTP.Timeout = 0 },
			errMsg: "http.timeout must be > 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(&cfg)
			err := validate(&cfg)
			if err == nil {
				t.Fatalf("expected error %q, got nil", tt.errMsg)
			}
			if err.Error() != tt.errMsg {
				t.Errorf("expected %q, got %q", tt.errMsg, err.Error())
			}
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	cfg := Defaults()
	if err := validate(&cfg); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestMissingDestination(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"notify without webhook", func(c *Config) {}, "chat.webhook_url"},
		{"notify configured", func(c *Config) { c.Chat.WebhookURL = "https://hooks" }, ""},
		{"dispatch without url", func(c *Config) { c.Relay.Mode = ModeDispatch }, "dispatch.url"},
		{"dispatch without token", func(c *Config) {
			c.Relay.Mode = ModeDispatch
			c.Dispatch.URL = "https://api.github.com/repos/a/b/dispatches"
		}, "dispatch.token"},
		{"comment without token", func(c *Config) { c.Relay.Mode = ModeComment }, "review.token"},
		{"comment configured", func(c *Config) {
			c.Relay.Mode = ModeComment
			c.Review.Token = "ghp_x"
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(&cfg)
			if got := cfg.MissingDestination(); got != tt.want {
				t.Errorf("MissingDestination() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEffectiveSignatureHeader(t *testing.T) {
	cfg := Defaults()
	if got := cfg.EffectiveSignatureHeader(); got != "expo-signature" {
		t.Errorf("notify default header = %q", got)
	}

	cfg.Relay.Mode = ModeComment
	if got := cfg.EffectiveSignatureHeader(); got != "X-Hub-Signature-256" {
		t.Errorf("comment default header = %q", got)
	}

	cfg.Relay.SignatureHeader = "X-Custom"
	if got := cfg.EffectiveSignatureHeader(); got != "X-Custom" {
		t.Errorf("explicit header = %q", got)
	}
}

func TestParseFlags(t *testing.T) {
	flags, err := ParseFlags([]string{"--port", "9090", "--log-level", "debug"})
	if err != nil {
		t.Fatal(err)
	}

	if flags.Port == nil || *flags.Port != "9090" {
		t.Errorf("expected port 9090, got %v", flags.Port)
	}
	if flags.LogLevel == nil || *flags.LogLevel != "debug" {
		t.Errorf("expected log-level debug, got %v", flags.LogLevel)
	}
	// Unset flags remain nil
	if flags.Mode != nil {
		t.Errorf("expected nil Mode, got %v", *flags.Mode)
	}
	if flags.ConfigPath != nil {
		t.Errorf("expected nil ConfigPath, got %v", *flags.ConfigPath)
	}
}

func TestParseFlagsShorthand(t *testing.T) {
	flags, err := ParseFlags([]string{"-p", "7070", "-c", "custom.yaml"})
	if err != nil {
		t.Fatal(err)
	}

	if flags.Port == nil || *flags.Port != "7070" {
		t.Errorf("expected port 7070, got %v", flags.Port)
	}
	if flags.ConfigPath == nil || *flags.ConfigPath != "custom.yaml" {
		t.Errorf("expected config custom.yaml, got %v", flags.ConfigPath)
	}
}

func TestParseFlagsInvalid(t *testing.T) {
	_, err := ParseFlags([]string{"--unknown-flag"})
	if err == nil {
		t.Error("expected error for unknown flag, got nil")
	}
}

func TestApplyCLINilFlags(t *testing.T) {
	cfg := Defaults()
	original := cfg

	// All-nil flags should change nothing.
	applyCLI(&cfg, CLIFlags{})

	if cfg.Server.Port != original.Server.Port {
		t.Errorf("port changed from %s to %s", original.Server.Port, cfg.Server.Port)
	}
	if cfg.Relay.Mode != original.Relay.Mode {
		t.Errorf("mode changed from %s to %s", original.Relay.Mode, cfg.Relay.Mode)
	}
}

func TestCLIOverridesEnv(t *testing.T) {
	// CLI flags must win over ENV.
	t.Setenv("BUILDRELAY_PORT", "7070")
	t.Setenv("BUILDRELAY_MODE", "comment")

	flags, err := ParseFlags([]string{"--port", "3333", "--mode", "dispatch", "-c", "/nonexistent/buildrelay.yaml"})
	if err != nil {
		t.Fatal(err)
	}

	cfg, _, err := LoadWithCLI(flags)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != "3333" {
		t.Errorf("expected CLI port 3333 to override ENV 7070, got %s", cfg.Server.Port)
	}
	if cfg.Relay.Mode != ModeDispatch {
		t.Errorf("expected CLI mode dispatch to override ENV comment, got %s", cfg.Relay.Mode)
	}
}

func TestLoadWithCLIInvalidMode(t *testing.T) {
	mode := "carrier-pigeon"
	path := "/nonexistent/buildrelay.yaml"
	if _, _, err := LoadWithCLI(CLIFlags{Mode: &mode, ConfigPath: &path}); err == nil {
		t.Fatal("expected validation error for unknown mode")
	}
}

func TestLoadFromFullHierarchy(t *testing.T) {
	// YAML sets port=9090, env overrides to 7070. Env must win.
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(yamlPath, []byte(`
server:
  port: "9090"
relay:
  identifier_prefix: "ENG"
`), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("BUILDRELAY_PORT", "7070")

	cfg, err := LoadFrom(yamlPath)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("expected env port 7070, got %s", cfg.Server.Port)
	}
	if cfg.Relay.IdentifierPrefix != "ENG" {
		t.Errorf("expected YAML prefix ENG, got %s", cfg.Relay.IdentifierPrefix)
	}
}
