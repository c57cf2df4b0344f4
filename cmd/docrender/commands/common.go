// Package commands implements the docrender CLI commands.
package commands

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docrender/internal/config"
	"git.home.luguber.info/inful/docrender/internal/events"
	"git.home.luguber.info/inful/docrender/internal/eventstore"
	ferrors "git.home.luguber.info/inful/docrender/internal/foundation/errors"
	"git.home.luguber.info/inful/docrender/internal/linkverify"
	"git.home.luguber.info/inful/docrender/internal/logfields"
	"git.home.luguber.info/inful/docrender/internal/metrics"
	"git.home.luguber.info/inful/docrender/internal/retry"
)

// DefaultConfigPath is used when --config is not given.
const DefaultConfigPath = "docrender.yaml"

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"docrender.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Render  RenderCmd  `cmd:"" help:"Render the documentation set"`
	Routes  RoutesCmd  `cmd:"" help:"Print the destination of every document without rendering"`
	Verify  VerifyCmd  `cmd:"" help:"Check rendered HTML output for broken internal links"`
	Events  EventsCmd  `cmd:"" help:"Show stored render passes"`
	Anchors AnchorsCmd `cmd:"" help:"List the anchors recorded by the last pass"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig reads the configuration file. A missing file at the default
// location falls back to the built-in defaults.
func (c *CLI) loadConfig() (*config.Config, error) {
	if _, err := os.Stat(c.Config); errors.Is(err, os.ErrNotExist) && filepath.Base(c.Config) == DefaultConfigPath {
		slog.Debug("No configuration file; using defaults", logfields.Path(c.Config))
		return config.Default(), nil
	}
	return config.Load(c.Config)
}

// environment holds the collaborators shared by every pass of one process:
// metrics, the event bus with its optional store, and the NATS notifier.
type environment struct {
	recorder metrics.Recorder
	bus      *events.Bus
	store    *eventstore.SQLiteStore
	notifier *linkverify.Notifier
	server   *http.Server
}

func newEnvironment(ctx context.Context, cfg *config.Config) (*environment, error) {
	env := &environment{recorder: metrics.NoopRecorder{}}

	if cfg.Events.Path != "" {
		if err := ensureParentDir(cfg.Events.Path); err != nil {
			return nil, err
		}
		store, err := eventstore.NewSQLiteStore(cfg.Events.Path)
		if err != nil {
			return nil, err
		}
		env.store = store
		env.bus = events.NewBusWithStore(store)
	} else {
		env.bus = events.NewBus()
	}

	if cfg.Notify.Enabled() {
		client, err := linkverify.NewNATSClient(ctx, cfg.Notify.NATSURL, cfg.Notify.Subject)
		if err != nil {
			env.Close()
			return nil, err
		}
		policy := retry.NewPolicy(retry.Mode(cfg.Notify.Backoff), 100*time.Millisecond, 2*time.Second, max(cfg.Notify.MaxRetries, 0))
		env.notifier = linkverify.NewNotifier(client, cfg.Notify.Subject, policy)
		env.notifier.Attach(env.bus)
	}

	if cfg.Metrics.Listen != "" {
		reg := prometheus.NewRegistry()
		env.recorder = metrics.NewPrometheusRecorder(reg)
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.HTTPHandler(reg))
		env.server = &http.Server{Addr: cfg.Metrics.Listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			slog.Info("Serving metrics", slog.String("addr", cfg.Metrics.Listen))
			if err := env.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server failed", logfields.Error(err))
			}
		}()
	}
	return env, nil
}

// Close releases every collaborator; errors are logged.
func (e *environment) Close() {
	if e.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := e.server.Shutdown(ctx); err != nil {
			slog.Warn("Metrics server shutdown error", logfields.Error(err))
		}
		cancel()
	}
	if e.notifier != nil {
		_ = e.notifier.Close()
	}
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			slog.Warn("Failed to close event store", logfields.Error(err))
		}
	}
}

func ensureParentDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot create state directory").
			WithContext("path", path).
			Build()
	}
	return nil
}
