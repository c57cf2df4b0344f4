package docs

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/docrender/internal/docset"
	derrors "git.home.luguber.info/inful/docrender/internal/docs/errors"
	"git.home.luguber.info/inful/docrender/internal/foundation/errors"
	"git.home.luguber.info/inful/docrender/internal/frontmatter"
	"git.home.luguber.info/inful/docrender/internal/logfields"
	"git.home.luguber.info/inful/docrender/internal/markdown"
	"git.home.luguber.info/inful/docrender/internal/metas"
)

// Result is a loaded source tree.
type Result struct {
	Set    *docset.Set
	Metas  *metas.Memory
	Assets []DocFile
	// Hash identifies the loaded content; see ComputeDocsHash.
	Hash string
}

// Load discovers, reads and parses every markdown document below root and
// returns them as a guide set targeting outputLocation.
//
// The frontmatter of each document supplies its title, link table,
// variables and labels. A document without a frontmatter title takes the
// text of its first level-1 heading.
func Load(ctx context.Context, root, outputLocation string) (*Result, error) {
	start := time.Now()
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", derrors.ErrInvalidRelativePath, err)
	}
	files, err := Discover(abs)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "cannot read documentation source").
			Fatal().
			WithContext("source", root).
			Build()
	}

	res := &Result{Metas: metas.NewMemory()}
	var documents []*docset.Document
	for i := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		df := &files[i]
		if err := df.LoadContent(); err != nil {
			return nil, errors.FileSystemError("cannot read documentation file").
				WithCause(err).
				WithContext("document", df.RelativePath).
				Build()
		}
		if df.IsAsset {
			res.Assets = append(res.Assets, *df)
			continue
		}

		doc, entry, err := parse(df)
		if err != nil {
			return nil, err
		}
		documents = append(documents, doc)
		res.Metas.Put(entry)
	}
	if len(documents) == 0 {
		return nil, errors.ConfigError("no documents to render").
			WithCause(derrors.ErrNoDocsFound).
			WithContext("source", root).
			Build()
	}

	// Paths are inside the DSN, whose root already is the source directory.
	res.Set, err = docset.New(docset.KindGuide,
		docset.Source{DSN: "file://" + filepath.ToSlash(abs), Paths: []string{"/"}},
		outputLocation, documents...)
	if err != nil {
		return nil, err
	}
	if res.Hash, err = ComputeDocsHash(files); err != nil {
		return nil, err
	}

	slog.Info("Documentation loaded",
		logfields.Source(root),
		logfields.Count(len(documents)),
		slog.Int("assets", len(res.Assets)),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return res, nil
}

func parse(df *DocFile) (*docset.Document, metas.Entry, error) {
	fm, body, had, err := frontmatter.Split(df.Content)
	if err != nil {
		return nil, metas.Entry{}, invalidFrontmatter(df, err)
	}
	var header frontmatter.Header
	if had {
		if header, err = frontmatter.Decode(fm); err != nil {
			return nil, metas.Entry{}, invalidFrontmatter(df, err)
		}
	}

	node := markdown.Parse(body)
	title := header.Title
	if title == "" {
		title = markdown.Title(node)
	}
	doc := docset.NewDocument(df.RelativePath, node, header.Links, header.Variables).WithTitle(title)
	entry := metas.Entry{
		File:    df.RelativePath,
		Title:   title,
		Anchors: markdown.Anchors(node),
		Labels:  header.Labels,
	}
	return doc, entry, nil
}

func invalidFrontmatter(df *DocFile, err error) error {
	return errors.ValidationError("invalid frontmatter").
		WithCause(fmt.Errorf("%w: %w", derrors.ErrInvalidFrontmatter, err)).
		WithContext("document", df.RelativePath).
		Build()
}
