package config

import (
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/docrender/internal/foundation/errors"
	"git.home.luguber.info/inful/docrender/internal/retry"
	"git.home.luguber.info/inful/docrender/internal/router"
	"git.home.luguber.info/inful/docrender/internal/urlgen"
)

// MaxWorkers bounds render.workers.
const MaxWorkers = 64

// ValidateConfig validates the complete configuration structure.
func ValidateConfig(cfg *Config) error {
	validator := &configurationValidator{config: cfg}
	return validator.validate()
}

type configurationValidator struct {
	config *Config
}

func (cv *configurationValidator) validate() error {
	if err := cv.validateSource(); err != nil {
		return err
	}
	if err := cv.validateRender(); err != nil {
		return err
	}
	if err := cv.validateRoutes(); err != nil {
		return err
	}
	if err := cv.validateNotify(); err != nil {
		return err
	}
	return cv.validateWatch()
}

func (cv *configurationValidator) validateSource() error {
	src := cv.config.Source
	if src.Repository == nil {
		return nil
	}
	if src.Repository.URL == "" {
		return errors.ConfigError("source.repository.url is required").Build()
	}
	if !filepath.IsLocal(src.Directory) {
		return errors.ConfigError("source.directory must be relative to the repository root").
			WithContext("directory", src.Directory).
			Build()
	}
	if src.Repository.Depth < 0 {
		return errors.ConfigError("source.repository.depth must not be negative").
			WithContext("depth", src.Repository.Depth).
			Build()
	}
	return nil
}

func (cv *configurationValidator) validateRender() error {
	r := cv.config.Render
	if _, err := urlgen.ParsePolicy(r.Policy); err != nil {
		return err
	}
	if r.Workers > MaxWorkers {
		return errors.ConfigError("render.workers out of range").
			WithContext("workers", r.Workers).
			WithContext("max", MaxWorkers).
			Build()
	}
	return nil
}

func (cv *configurationValidator) validateRoutes() error {
	// router.New checks each rule's pattern.
	_, err := router.New(router.ExtensionFor(cv.config.Render.Format), cv.config.Routes...)
	return err
}

func (cv *configurationValidator) validateNotify() error {
	n := cv.config.Notify
	if !n.Enabled() {
		return nil
	}
	switch retry.Mode(n.Backoff) {
	case retry.Fixed, retry.Linear, retry.Exponential:
	default:
		return errors.ConfigError("invalid notify.backoff").
			WithContext("backoff", n.Backoff).
			Build()
	}
	if n.MaxRetries < -1 {
		return errors.ConfigError("notify.max_retries must be -1 or greater").
			WithContext("max_retries", n.MaxRetries).
			Build()
	}
	return nil
}

func (cv *configurationValidator) validateWatch() error {
	d, err := time.ParseDuration(cv.config.Watch.Debounce)
	if err != nil || d < 0 {
		return errors.ConfigError("invalid watch.debounce duration").
			WithCause(err).
			WithContext("debounce", cv.config.Watch.Debounce).
			Build()
	}
	return nil
}

// DebounceDuration returns the parsed watch debounce.
func (c *Config) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 300 * time.Millisecond
	}
	return d
}
