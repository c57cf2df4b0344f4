package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"git.home.luguber.info/inful/docrender/internal/config"
	"git.home.luguber.info/inful/docrender/internal/docs"
)

// RoutesCmd implements the 'routes' command.
type RoutesCmd struct {
	Source string `arg:"" optional:"" help:"Documentation source directory (overrides source.directory)"`
	Format string `short:"f" help:"Output format (html|markdown)"`
}

func (r *RoutesCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if r.Source != "" {
		cfg.Source.Directory = r.Source
	}
	if r.Format != "" {
		cfg.Render.Format = r.Format
		if err := config.ValidateConfig(cfg); err != nil {
			return err
		}
	}
	return RunRoutes(context.Background(), cfg, os.Stdout)
}

// RunRoutes prints "file -> destination" for every document of the set in
// set order. A duplicate destination fails before anything is printed.
func RunRoutes(ctx context.Context, cfg *config.Config, out io.Writer) error {
	dir, err := sourceDirectory(ctx, cfg)
	if err != nil {
		return err
	}
	res, err := docs.Load(ctx, dir, cfg.Output.Location)
	if err != nil {
		return err
	}
	setRenderer, err := newSetRenderer(cfg, res.Metas, nil)
	if err != nil {
		return err
	}
	targets, err := setRenderer.Plan(res.Set)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "DOCUMENT\tROUTE\tDESTINATION")
	for _, t := range targets {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", t.File, t.Route, t.Destination)
	}
	return tw.Flush()
}
