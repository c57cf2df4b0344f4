package commands

import (
	"context"
	"path/filepath"

	"git.home.luguber.info/inful/docrender/internal/config"
	"git.home.luguber.info/inful/docrender/internal/gitsource"
	"git.home.luguber.info/inful/docrender/internal/retry"
)

// sourceDirectory returns the local documentation directory, bringing the
// checkout up to date first when the source is a git repository.
func sourceDirectory(ctx context.Context, cfg *config.Config) (string, error) {
	repo := cfg.Source.Repository
	if repo == nil {
		return cfg.Source.Directory, nil
	}
	co, err := gitsource.NewFetcher(cfg.Source.Workspace, retry.DefaultPolicy()).Fetch(ctx, *repo)
	if err != nil {
		return "", err
	}
	return filepath.Join(co.Dir, filepath.FromSlash(cfg.Source.Directory)), nil
}
