package config

import (
	"strings"

	"git.home.luguber.info/inful/docrender/internal/retry"
	"git.home.luguber.info/inful/docrender/internal/urlgen"
)

// Default values.
const (
	DefaultSourceDirectory = "docs"
	DefaultSourceWorkspace = ".docrender/sources"
	DefaultOutputLocation  = "/"
	DefaultOutputDSN       = "./site"
	DefaultFormat          = "html"
	DefaultWorkers         = 1
	DefaultHighlightStyle  = "github"
	DefaultNotifySubject   = "docrender.gaps"
	DefaultNotifyRetries   = 2
	DefaultWatchDebounce   = "300ms"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// SourceDefaultApplier handles source and output defaults.
type SourceDefaultApplier struct{}

func (s *SourceDefaultApplier) Domain() string { return "source" }

func (s *SourceDefaultApplier) ApplyDefaults(cfg *Config) error {
	if strings.TrimSpace(cfg.Source.Directory) == "" {
		cfg.Source.Directory = DefaultSourceDirectory
	}
	if cfg.Source.Repository != nil && cfg.Source.Workspace == "" {
		cfg.Source.Workspace = DefaultSourceWorkspace
	}
	if cfg.Output.Location == "" {
		cfg.Output.Location = DefaultOutputLocation
	}
	if cfg.Output.DSN == "" {
		cfg.Output.DSN = DefaultOutputDSN
	}
	return nil
}

// RenderDefaultApplier handles render pass defaults.
type RenderDefaultApplier struct{}

func (r *RenderDefaultApplier) Domain() string { return "render" }

func (r *RenderDefaultApplier) ApplyDefaults(cfg *Config) error {
	cfg.Render.Format = strings.ToLower(strings.TrimSpace(cfg.Render.Format))
	if cfg.Render.Format == "" {
		cfg.Render.Format = DefaultFormat
	}
	if cfg.Render.Policy == "" {
		cfg.Render.Policy = string(urlgen.PolicyPlaceholder)
	}
	cfg.Render.Policy = strings.ToLower(cfg.Render.Policy)
	if cfg.Render.Workers <= 0 {
		cfg.Render.Workers = DefaultWorkers
	}
	if cfg.Render.HighlightStyle == "" {
		cfg.Render.HighlightStyle = DefaultHighlightStyle
	}
	return nil
}

// IntegrationDefaultApplier handles notify and watch defaults.
type IntegrationDefaultApplier struct{}

func (i *IntegrationDefaultApplier) Domain() string { return "integration" }

func (i *IntegrationDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Notify.Enabled() {
		if cfg.Notify.Subject == "" {
			cfg.Notify.Subject = DefaultNotifySubject
		}
		if cfg.Notify.MaxRetries == 0 {
			cfg.Notify.MaxRetries = DefaultNotifyRetries
		}
		if cfg.Notify.Backoff == "" {
			cfg.Notify.Backoff = string(retry.Exponential)
		}
	}
	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = DefaultWatchDebounce
	}
	return nil
}

var appliers = []DefaultApplier{
	&SourceDefaultApplier{},
	&RenderDefaultApplier{},
	&IntegrationDefaultApplier{},
}

func applyDefaults(cfg *Config) error {
	for _, a := range appliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}
