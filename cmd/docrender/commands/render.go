package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/docrender/internal/config"
	"git.home.luguber.info/inful/docrender/internal/docs"
	"git.home.luguber.info/inful/docrender/internal/foundation/errors"
	"git.home.luguber.info/inful/docrender/internal/logfields"
	"git.home.luguber.info/inful/docrender/internal/metas"
	"git.home.luguber.info/inful/docrender/internal/render"
	"git.home.luguber.info/inful/docrender/internal/router"
	"git.home.luguber.info/inful/docrender/internal/storage"
	"git.home.luguber.info/inful/docrender/internal/urlgen"
	"git.home.luguber.info/inful/docrender/internal/watch"
)

// RenderCmd implements the 'render' command.
type RenderCmd struct {
	Source  string `arg:"" optional:"" help:"Documentation source directory (overrides source.directory)"`
	Output  string `short:"o" help:"Output directory or storage DSN (overrides output.dsn)"`
	Format  string `short:"f" help:"Output format (html|markdown)"`
	Policy  string `help:"Unresolved reference policy (placeholder|fail)"`
	Workers int    `short:"w" help:"Documents rendered concurrently"`
	Watch   bool   `help:"Re-render whenever the source changes"`
}

func (r *RenderCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if err := r.applyOverrides(cfg); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	env, err := newEnvironment(ctx, cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	pass := func(ctx context.Context) error {
		report, err := RunPass(ctx, cfg, env)
		if err != nil {
			return err
		}
		fmt.Printf("Rendered %d of %d documents to %s (%d unresolved references) in %s\n",
			len(report.Written), report.Documents, cfg.Output.DSN, len(report.Gaps), report.Duration.Round(time.Millisecond))
		return nil
	}

	if r.Watch {
		if cfg.Source.Repository != nil {
			return errors.ConfigError("--watch needs a local source directory, not source.repository").Build()
		}
		return watch.New(cfg.Source.Directory, cfg.DebounceDuration(), pass).Run(ctx)
	}
	return pass(ctx)
}

func (r *RenderCmd) applyOverrides(cfg *config.Config) error {
	if r.Source != "" {
		cfg.Source.Directory = r.Source
	}
	if r.Output != "" {
		cfg.Output.DSN = r.Output
	}
	if r.Format != "" {
		cfg.Render.Format = r.Format
	}
	if r.Policy != "" {
		cfg.Render.Policy = r.Policy
	}
	if r.Workers > 0 {
		cfg.Render.Workers = r.Workers
	}
	return config.ValidateConfig(cfg)
}

// RunPass loads the source tree and renders it once.
func RunPass(ctx context.Context, cfg *config.Config, env *environment) (*render.Report, error) {
	dir, err := sourceDirectory(ctx, cfg)
	if err != nil {
		return nil, err
	}
	res, err := docs.Load(ctx, dir, cfg.Output.Location)
	if err != nil {
		return nil, err
	}
	if cfg.Metas.Path != "" {
		if err := ensureParentDir(cfg.Metas.Path); err != nil {
			return nil, err
		}
		if err := metas.Save(ctx, cfg.Metas.Path, res.Metas); err != nil {
			slog.Warn("Failed to persist metas", logfields.Path(cfg.Metas.Path), logfields.Error(err))
		}
	}

	origin, err := storage.Open(res.Set.Source.DSN)
	if err != nil {
		return nil, err
	}
	dest, err := storage.Open(cfg.Output.DSN)
	if err != nil {
		return nil, err
	}

	setRenderer, err := newSetRenderer(cfg, res.Metas, env)
	if err != nil {
		return nil, err
	}
	report, err := setRenderer.Render(ctx, res.Set, origin, dest)
	if err != nil {
		return report, err
	}

	if cfg.Output.Assets {
		if err := docs.CopyAssets(ctx, res.Assets, dest, cfg.Output.Location); err != nil {
			return report, err
		}
	}
	return report, nil
}

func newSetRenderer(cfg *config.Config, store metas.Store, env *environment) (*render.SetRenderer, error) {
	rt, err := router.New(router.ExtensionFor(cfg.Render.Format), cfg.Routes...)
	if err != nil {
		return nil, err
	}
	policy, err := urlgen.ParsePolicy(cfg.Render.Policy)
	if err != nil {
		return nil, err
	}

	htmlOpts := []render.HTMLOption{render.WithHighlightStyle(cfg.Render.HighlightStyle)}
	if cfg.Render.Stylesheet != "" {
		htmlOpts = append(htmlOpts, render.WithStylesheet(cfg.Render.Stylesheet))
	}
	documents := render.NewDocumentRenderer(
		render.NewHTMLFormatter(htmlOpts...),
		render.NewMarkdownFormatter(),
	)

	opts := []render.Option{
		render.WithFormat(cfg.Render.Format),
		render.WithPolicy(policy),
		render.WithMetas(store),
		render.WithWorkers(cfg.Render.Workers),
		render.WithGuidesEnabled(cfg.Render.GuidesOn()),
	}
	if env != nil {
		opts = append(opts, render.WithRecorder(env.recorder), render.WithBus(env.bus))
	}
	return render.NewSetRenderer(rt, documents, opts...), nil
}
