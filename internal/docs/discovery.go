// Package docs discovers markdown documents and assets below a source
// directory and loads them into a docset.Set plus its metadata store.
package docs

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	derrors "git.home.luguber.info/inful/docrender/internal/docs/errors"
	"git.home.luguber.info/inful/docrender/internal/logfields"
)

// DocFile represents a discovered documentation file or asset
type DocFile struct {
	Path         string // Absolute path to the file
	RelativePath string // Slash-separated path relative to the source root; the document identifier
	Section      string // Directory part of RelativePath ("" at the root)
	Name         string // File name without extension
	Extension    string // File extension
	Content      []byte // File content (loaded on demand)
	IsAsset      bool   // True for images and other non-markdown files
}

// Discover walks root and returns markdown documents and assets in lexical
// order. Hidden files and directories are skipped, as are repository
// housekeeping files at the root.
func Discover(root string) ([]DocFile, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", derrors.ErrDocsPathNotFound, root, err)
	}

	var files []DocFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		isMarkdown := isMarkdownFile(path)
		isAssetFile := isAsset(path)
		if !isMarkdown && !isAssetFile {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("%w: %w", derrors.ErrInvalidRelativePath, err)
		}
		rel = filepath.ToSlash(rel)

		section := filepath.ToSlash(filepath.Dir(rel))
		if section == "." {
			section = ""
		}
		if section == "" && isIgnoredFile(d.Name()) {
			return nil
		}

		files = append(files, DocFile{
			Path:         path,
			RelativePath: rel,
			Section:      section,
			Name:         strings.TrimSuffix(d.Name(), filepath.Ext(d.Name())),
			Extension:    filepath.Ext(d.Name()),
			IsAsset:      isAssetFile,
		})

		fileType := "documentation"
		if isAssetFile {
			fileType = "asset"
		}
		slog.Debug("Discovered file",
			logfields.Path(rel),
			slog.String("section", section),
			slog.String("type", fileType))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", derrors.ErrDocsDirWalkFailed, root, err)
	}
	return files, nil
}

// LoadContent loads the content of a documentation file
func (df *DocFile) LoadContent() error {
	if df.Content != nil {
		return nil // Already loaded
	}

	content, err := os.ReadFile(df.Path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", derrors.ErrFileReadFailed, df.Path, err)
	}

	df.Content = content
	return nil
}

// isMarkdownFile checks if a file is a markdown file
func isMarkdownFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".md" || ext == ".markdown" || ext == ".mdown" || ext == ".mkd"
}

// isAsset checks if a file is an asset (image, etc.)
func isAsset(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".bmp", ".ico",
		".pdf", ".mp4", ".webm", ".ogv", ".css", ".csv", ".json":
		return true
	}
	return false
}

// isIgnoredFile checks if a root-level file should be ignored
func isIgnoredFile(filename string) bool {
	for _, ignore := range []string{"CONTRIBUTING.md", "CHANGELOG.md", "LICENSE.md"} {
		if strings.EqualFold(filename, ignore) {
			return true
		}
	}
	return false
}
