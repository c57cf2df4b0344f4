// Package storage provides the filesystem handles the renderer reads sources
// from and writes rendered documents to.
package storage

import (
	"context"
	"net/url"
	"strings"

	"git.home.luguber.info/inful/docrender/internal/foundation/errors"
)

// Source is read access to the documents' origin.
type Source interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	Exists(ctx context.Context, path string) (bool, error)
}

// Destination is write access to the output tree. WriteFile replaces any
// existing file at path and creates missing parent directories.
type Destination interface {
	WriteFile(ctx context.Context, path string, data []byte) error
}

// FS is a backend usable as both source and destination.
type FS interface {
	Source
	Destination
}

// ErrNotFound is returned by ReadFile for missing files.
type ErrNotFound struct {
	Path string
}

func (e ErrNotFound) Error() string {
	return "file not found: " + e.Path
}

// IsNotFound returns true if the error is ErrNotFound.
func IsNotFound(err error) bool {
	_, ok := err.(ErrNotFound)
	return ok
}

// Open returns the backend addressed by dsn:
//
//	file:///abs/dir  OSFS rooted at /abs/dir
//	/abs/dir, ./dir  OSFS rooted at the path
//	mem://           fresh MemFS
//	"" (empty)       OSFS without root; paths are used as given
func Open(dsn string) (FS, error) {
	if dsn == "" {
		return NewOSFS(""), nil
	}
	if !strings.Contains(dsn, "://") {
		return NewOSFS(dsn), nil
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid storage DSN").
			Fatal().
			WithContext("dsn", dsn).
			Build()
	}
	switch u.Scheme {
	case "file":
		return NewOSFS(u.Host + u.Path), nil
	case "mem", "memory":
		return NewMemFS(), nil
	default:
		return nil, errors.ConfigError("unsupported storage scheme").
			WithContext("dsn", dsn).
			WithContext("scheme", u.Scheme).
			Build()
	}
}
