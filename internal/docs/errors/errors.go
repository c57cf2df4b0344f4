package errors

// Package errors provides sentinel errors for loading documentation sources.

import "errors"

var (
	// ErrDocsPathNotFound indicates the configured source directory does not exist.
	ErrDocsPathNotFound = errors.New("documentation path not found")

	// ErrDocsDirWalkFailed indicates filesystem traversal of the source directory failed.
	ErrDocsDirWalkFailed = errors.New("documentation directory walk failed")

	// ErrFileReadFailed indicates reading a discovered file failed.
	ErrFileReadFailed = errors.New("documentation file read failed")

	// ErrInvalidFrontmatter indicates a document's YAML frontmatter could not be parsed.
	ErrInvalidFrontmatter = errors.New("invalid frontmatter")

	// ErrNoDocsFound indicates the source directory holds no markdown documents.
	ErrNoDocsFound = errors.New("no documentation files found")

	// ErrInvalidRelativePath indicates calculating a path relative to the source root failed.
	ErrInvalidRelativePath = errors.New("invalid relative path calculation")
)
