package docs

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/docrender/internal/foundation/errors"
	"git.home.luguber.info/inful/docrender/internal/logfields"
	"git.home.luguber.info/inful/docrender/internal/router"
	"git.home.luguber.info/inful/docrender/internal/storage"
)

// CopyAssets mirrors assets below outputRoot at their source-relative path,
// where rendered documents expect them.
func CopyAssets(ctx context.Context, assets []DocFile, dest storage.Destination, outputRoot string) error {
	for i := range assets {
		a := &assets[i]
		if err := a.LoadContent(); err != nil {
			return errors.FileSystemError("cannot read asset").
				WithCause(err).
				WithContext("path", a.RelativePath).
				Build()
		}
		target := router.Destination(outputRoot, a.RelativePath)
		if err := dest.WriteFile(ctx, target, a.Content); err != nil {
			return errors.FileSystemError("cannot copy asset").
				WithCause(err).
				WithContext("path", a.RelativePath).
				WithContext("destination", target).
				Build()
		}
	}
	if len(assets) > 0 {
		slog.Info("Copied assets", logfields.Output(outputRoot), logfields.Count(len(assets)))
	}
	return nil
}
