package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	cfhttp "github.com/Strob0t/buildrelay/internal/adapter/http"
	"github.com/Strob0t/buildrelay/internal/adapter/notion"
	cfotel "github.com/Strob0t/buildrelay/internal/adapter/otel"
	"github.com/Strob0t/buildrelay/internal/config"
	"github.com/Strob0t/buildrelay/internal/logger"
	"github.com/Strob0t/buildrelay/internal/middleware"
	"github.com/Strob0t/buildrelay/internal/port/gitprovider"
	"github.com/Strob0t/buildrelay/internal/port/notifier"
	"github.com/Strob0t/buildrelay/internal/service"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// gitProviderName is the forge used for re-dispatch and review comments.
const gitProviderName = "github"

func main() {
	if err := dispatch(os.Args[1:]); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

// dispatch routes to a subcommand. Without one, or when the first argument
// is a flag, the server starts.
func dispatch(args []string) error {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return runServe(args)
	}

	switch args[0] {
	case "serve":
		return runServe(args[1:])
	case "sign":
		return runSign(args[1:], os.Stdin, os.Stdout)
	case "extract":
		return runExtract(args[1:], os.Stdin, os.Stdout)
	case "version":
		fmt.Println(version)
		return nil
	case "help", "--help", "-h":
		printHelp()
		return nil
	default:
		printHelp()
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func printHelp() {
	fmt.Fprintf(os.Stderr, `Usage: buildrelay [command] [options]

Commands:
  serve     Run the webhook relay (default)
  sign      Compute a webhook signature for a payload
  extract   Show the work-item references found in a text
  version   Print the version
  help      Show this help message

Examples:
  buildrelay -config buildrelay.yaml -mode notify
  buildrelay sign -file payload.json -algo sha256
  echo "fix TASK-12" | buildrelay extract
`)
}

func runServe(args []string) error {
	flags, err := config.ParseFlags(args)
	if err != nil {
		return fmt.Errorf("flags: %w", err)
	}
	cfg, path, err := config.LoadWithCLI(flags)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, closer := logger.New(cfg.Logging)
	defer closer.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"path", path,
		"port", cfg.Server.Port,
		"mode", cfg.Relay.Mode,
		"log_level", cfg.Logging.Level,
		"profile_filter", cfg.Relay.ProfileFilter,
		"workspace", cfg.WorkspaceConfigured(),
	)
	if cfg.Relay.Secret == "" {
		slog.Warn("no webhook secret configured: inbound events are accepted without signature verification")
	}
	if missing := cfg.MissingDestination(); missing != "" {
		slog.Warn("destination incomplete: events will fail until it is set", "missing", missing)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---
	shutdownTelemetry, err := cfotel.Init(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			slog.Warn("telemetry shutdown", "error", err)
		}
	}()

	metrics, err := cfotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Adapters ---
	deps, err := buildDeps(cfg, cfotel.NewHTTPClient(cfg.HTTP))
	if err != nil {
		return err
	}
	deps.Metrics = metrics

	// --- HTTP ---
	handlers := &cfhttp.Handlers{
		Relay:   service.NewRelayService(cfg, deps),
		Config:  cfg,
		Version: version,
	}

	r := chi.NewRouter()
	r.Use(cfotel.HTTPMiddleware(cfg.Telemetry.ServiceName))
	r.Use(middleware.RequestID)
	r.Use(cfhttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cfhttp.SecurityHeaders)
	r.Use(chimw.Timeout(requestTimeout(cfg)))

	cfhttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      requestTimeout(cfg) + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// requestTimeout bounds one webhook: resolution, annotation and dispatch
// each take at most one outbound timeout.
func requestTimeout(cfg *config.Config) time.Duration {
	return 3*cfg.HTTP.Timeout + 5*time.Second
}

// buildDeps creates the adapters the configured mode needs. Collaborators
// whose settings are missing stay nil; the relay reports that per request.
func buildDeps(cfg *config.Config, client *http.Client) (service.RelayDeps, error) {
	var deps service.RelayDeps

	if cfg.WorkspaceConfigured() {
		deps.Workspace = notion.NewClient(cfg.Workspace.APIURL, cfg.Workspace.Token, cfg.Workspace.Version, client)
	}

	switch cfg.Relay.Mode {
	case config.ModeNotify:
		if cfg.Chat.WebhookURL == "" {
			return deps, nil
		}
		chat, err := notifier.New(cfg.Chat.Provider, cfg.Chat.WebhookURL, client)
		if err != nil {
			return deps, fmt.Errorf("chat provider (available: %s): %w",
				strings.Join(notifier.Available(), ", "), err)
		}
		deps.Chat = chat
	case config.ModeDispatch, config.ModeComment:
		token := cfg.Dispatch.Token
		if cfg.Relay.Mode == config.ModeComment {
			token = cfg.Review.Token
		}
		if token == "" {
			return deps, nil
		}
		git, err := gitprovider.New(gitProviderName, token, client)
		if err != nil {
			return deps, fmt.Errorf("git provider (available: %s): %w",
				strings.Join(gitprovider.Available(), ", "), err)
		}
		deps.Git = git
	}
	return deps, nil
}
