package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "buildrelay.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// CLIFlags holds command-line overrides. Nil fields were not set.
type CLIFlags struct {
	ConfigPath *string
	Port       *string
	LogLevel   *string
	Mode       *string
}

// ParseFlags parses serve flags. Only flags given explicitly are set.
func ParseFlags(args []string) (CLIFlags, error) {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var configPath, port, logLevel, mode string
	fs.StringVar(&configPath, "config", "", "path to YAML config file")
	fs.StringVar(&configPath, "c", "", "path to YAML config file (shorthand)")
	fs.StringVar(&port, "port", "", "HTTP listen port")
	fs.StringVar(&port, "p", "", "HTTP listen port (shorthand)")
	fs.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.StringVar(&mode, "mode", "", "dispatch mode (notify, dispatch, comment)")

	if err := fs.Parse(args); err != nil {
		return CLIFlags{}, err
	}

	var flags CLIFlags
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "config", "c":
			flags.ConfigPath = &configPath
		case "port", "p":
			flags.Port = &port
		case "log-level":
			flags.LogLevel = &logLevel
		case "mode":
			flags.Mode = &mode
		}
	})
	return flags, nil
}

// LoadWithCLI loads defaults < YAML < ENV < CLI and returns the YAML path used.
func LoadWithCLI(flags CLIFlags) (*Config, string, error) {
	path := DefaultConfigFile
	if flags.ConfigPath != nil {
		path = *flags.ConfigPath
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, path); err != nil {
		return nil, path, fmt.Errorf("config yaml: %w", err)
	}
	loadEnv(&cfg)
	applyCLI(&cfg, flags)

	if err := validate(&cfg); err != nil {
		return nil, path, fmt.Errorf("config validate: %w", err)
	}
	return &cfg, path, nil
}

func applyCLI(cfg *Config, flags CLIFlags) {
	if flags.Port != nil {
		cfg.Server.Port = *flags.Port
	}
	if flags.LogLevel != nil {
		cfg.Logging.Level = *flags.LogLevel
	}
	if flags.Mode != nil {
		cfg.Relay.Mode = Mode(*flags.Mode)
	}
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Server.Port, "BUILDRELAY_PORT")
	setInt64(&cfg.Server.MaxBodyBytes, "BUILDRELAY_MAX_BODY_BYTES")
	setString(&cfg.Logging.Level, "BUILDRELAY_LOG_LEVEL")
	setString(&cfg.Logging.Service, "BUILDRELAY_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "BUILDRELAY_LOG_ASYNC")
	setDuration(&cfg.HTTP.Timeout, "BUILDRELAY_HTTP_TIMEOUT")

	// Telemetry
	setString(&cfg.Telemetry.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.Telemetry.Insecure, "OTEL_EXPORTER_OTLP_INSECURE")
	setString(&cfg.Telemetry.ServiceName, "OTEL_SERVICE_NAME")

	// Relay
	setMode(&cfg.Relay.Mode, "BUILDRELAY_MODE")
	setString(&cfg.Relay.Secret, "BUILDRELAY_WEBHOOK_SECRET")
	setString(&cfg.Relay.SignatureHeader, "BUILDRELAY_SIGNATURE_HEADER")
	setString(&cfg.Relay.ProfileFilter, "BUILDRELAY_PROFILE_FILTER")
	setString(&cfg.Relay.DefaultProfile, "BUILDRELAY_DEFAULT_PROFILE")
	setString(&cfg.Relay.IdentifierPrefix, "BUILDRELAY_IDENTIFIER_PREFIX")
	setInt(&cfg.Relay.Concurrency, "BUILDRELAY_CONCURRENCY")

	// Chat
	setString(&cfg.Chat.Provider, "BUILDRELAY_CHAT_PROVIDER")
	setString(&cfg.Chat.WebhookURL, "SLACK_WEBHOOK_URL")
	setString(&cfg.Chat.WebhookURL, "BUILDRELAY_CHAT_WEBHOOK_URL")

	// Dispatch
	setString(&cfg.Dispatch.URL, "BUILDRELAY_DISPATCH_URL")
	setString(&cfg.Dispatch.Token, "BUILDRELAY_DISPATCH_TOKEN")
	setString(&cfg.Dispatch.EventType, "BUILDRELAY_DISPATCH_EVENT_TYPE")

	// Workspace
	setString(&cfg.Workspace.APIURL, "BUILDRELAY_WORKSPACE_API_URL")
	setString(&cfg.Workspace.Token, "NOTION_TOKEN")
	setString(&cfg.Workspace.Token, "BUILDRELAY_WORKSPACE_TOKEN")
	setString(&cfg.Workspace.Version, "BUILDRELAY_WORKSPACE_VERSION")
	setString(&cfg.Workspace.Domain, "BUILDRELAY_WORKSPACE_DOMAIN")
	setString(&cfg.Workspace.PageBaseURL, "BUILDRELAY_WORKSPACE_PAGE_BASE_URL")
	setInt(&cfg.Workspace.PageSize, "BUILDRELAY_WORKSPACE_PAGE_SIZE")

	// Review
	setString(&cfg.Review.APIURL, "BUILDRELAY_REVIEW_API_URL")
	setString(&cfg.Review.Token, "GITHUB_TOKEN")
	setString(&cfg.Review.Token, "BUILDRELAY_REVIEW_TOKEN")
}

// validate checks structural problems only. Missing destination credentials
// are reported per request so a misconfigured relay still answers with 500.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Server.MaxBodyBytes < 1 {
		return errors.New("server.max_body_bytes must be >= 1")
	}
	if !cfg.Relay.Mode.Valid() {
		return fmt.Errorf("relay.mode %q must be one of notify, dispatch, comment", cfg.Relay.Mode)
	}
	if cfg.Relay.Concurrency < 1 {
		return errors.New("relay.concurrency must be >= 1")
	}
	if cfg.Workspace.PageSize < 1 || cfg.Workspace.PageSize > 100 {
		return errors.New("workspace.page_size must be between 1 and 100")
	}
	if cfg.HTTP.Timeout <= 0 {
		return errors.New("http.timeout must be > 0")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setMode(dst *Mode, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = Mode(v)
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
