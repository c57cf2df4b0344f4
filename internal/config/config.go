// Package config loads the docrender YAML configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docrender/internal/foundation/errors"
	"git.home.luguber.info/inful/docrender/internal/router"
)

// Config represents the application configuration
type Config struct {
	Source  SourceConfig  `yaml:"source"`
	Output  OutputConfig  `yaml:"output"`
	Render  RenderConfig  `yaml:"render"`
	Routes  []router.Rule `yaml:"routes,omitempty"`
	Metas   MetasConfig   `yaml:"metas,omitempty"`
	Events  EventsConfig  `yaml:"events,omitempty"`
	Metrics MetricsConfig `yaml:"metrics,omitempty"`
	Notify  NotifyConfig  `yaml:"notify,omitempty"`
	Watch   WatchConfig   `yaml:"watch,omitempty"`
}

// SourceConfig points at the documentation tree to render.
//
// With a Repository, Directory is relative to the root of its checkout,
// which is kept below Workspace between runs.
type SourceConfig struct {
	Directory  string            `yaml:"directory"`
	Repository *RepositoryConfig `yaml:"repository,omitempty"`
	Workspace  string            `yaml:"workspace,omitempty"`
}

// RepositoryConfig is a git repository holding the documentation source.
type RepositoryConfig struct {
	URL      string `yaml:"url"`
	Branch   string `yaml:"branch,omitempty"` // default: the remote HEAD
	Depth    int    `yaml:"depth,omitempty"`  // 0 clones the full history
	Username string `yaml:"username,omitempty"`
	Token    string `yaml:"token,omitempty"` // use ${VAR}; never commit it
}

// OutputConfig represents output configuration.
//
// Location is the output root prefixed to every route; DSN selects the
// storage backend the files are written to (see storage.Open).
type OutputConfig struct {
	Location string `yaml:"location"`
	DSN      string `yaml:"dsn"`
	Assets   bool   `yaml:"assets"` // Copy non-markdown files next to the rendered documents
}

// RenderConfig controls one render pass.
type RenderConfig struct {
	// GuidesEnabled switches guide rendering on; unset means on.
	GuidesEnabled  *bool  `yaml:"guides_enabled,omitempty"`
	Format         string `yaml:"format"`
	Policy         string `yaml:"policy"` // placeholder | fail
	Workers        int    `yaml:"workers"`
	HighlightStyle string `yaml:"highlight_style,omitempty"`
	Stylesheet     string `yaml:"stylesheet,omitempty"`
}

// GuidesOn reports whether guide rendering is enabled.
func (r RenderConfig) GuidesOn() bool { return r.GuidesEnabled == nil || *r.GuidesEnabled }

// MetasConfig persists the metadata store between passes. Empty Path keeps
// it in memory.
type MetasConfig struct {
	Path string `yaml:"path,omitempty"`
}

// EventsConfig enables the pass event store.
type EventsConfig struct {
	Path string `yaml:"path,omitempty"`
}

// MetricsConfig enables the Prometheus endpoint.
type MetricsConfig struct {
	Listen string `yaml:"listen,omitempty"`
}

// NotifyConfig publishes resolution gaps to NATS.
//
// Failed publishes are retried MaxRetries times (-1 disables retries) with
// the given backoff (fixed|linear|exponential).
type NotifyConfig struct {
	NATSURL    string `yaml:"nats_url,omitempty"`
	Subject    string `yaml:"subject,omitempty"`
	MaxRetries int    `yaml:"max_retries,omitempty"`
	Backoff    string `yaml:"backoff,omitempty"`
}

// Enabled reports whether gap notifications are configured.
func (n NotifyConfig) Enabled() bool { return n.NATSURL != "" }

// WatchConfig configures `render --watch`.
type WatchConfig struct {
	Debounce string `yaml:"debounce,omitempty"` // Go duration, e.g. "300ms"
}

// Load loads configuration from the specified file.
//
// A .env file in the working directory is loaded first so ${VAR} references
// in the YAML can be satisfied from it; variables already set in the process
// environment win.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, errors.ConfigError("configuration file not found").
			Fatal().
			WithContext("path", configPath).
			Build()
	}

	// #nosec G304 -- the configuration path is supplied by the operator
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read config file").
			WithContext("path", configPath).
			Build()
	}
	return Parse(data)
}

// Parse decodes YAML configuration, expanding ${VAR} references, then
// applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse config file").
			Fatal().
			Build()
	}
	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	// applyDefaults cannot fail on an empty configuration.
	_ = applyDefaults(cfg)
	return cfg
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	example := Default()
	example.Routes = []router.Rule{
		{Kind: "reference", Match: "api/*", Prefix: "reference/", StripDir: "api"},
	}
	example.Render.Stylesheet = "style.css"
	example.Metas.Path = ".docrender/metas.db"
	example.Events.Path = ".docrender/events.db"

	data, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}
