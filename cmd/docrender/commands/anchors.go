package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"git.home.luguber.info/inful/docrender/internal/config"
	"git.home.luguber.info/inful/docrender/internal/foundation/errors"
	"git.home.luguber.info/inful/docrender/internal/metas"
)

// AnchorsCmd implements the 'anchors' command.
type AnchorsCmd struct{}

func (a *AnchorsCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	return RunAnchors(context.Background(), cfg, os.Stdout)
}

// RunAnchors prints every document recorded in the metas database with its
// title, heading anchors and labels.
func RunAnchors(ctx context.Context, cfg *config.Config, out io.Writer) error {
	if cfg.Metas.Path == "" {
		return errors.ConfigError("metas.path is not configured").Build()
	}
	if _, err := os.Stat(cfg.Metas.Path); err != nil {
		return errors.NotFoundError("no metas database; run render first").
			WithContext("path", cfg.Metas.Path).
			Build()
	}
	store, err := metas.Load(ctx, cfg.Metas.Path)
	if err != nil {
		return err
	}
	for _, file := range store.Files() {
		e, _ := store.Get(file)
		_, _ = fmt.Fprintf(out, "%s\t%s\n", e.File, e.Title)
		if len(e.Anchors) > 0 {
			_, _ = fmt.Fprintf(out, "  anchors: %s\n", strings.Join(e.Anchors, ", "))
		}
		if len(e.Labels) > 0 {
			_, _ = fmt.Fprintf(out, "  labels:  %s\n", strings.Join(e.Labels, ", "))
		}
	}
	return nil
}
