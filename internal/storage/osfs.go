package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// OSFS is the local filesystem, optionally rooted at a directory. Paths are
// slash-separated and joined under the root; with an empty root they are
// used as given.
type OSFS struct {
	root string
}

// NewOSFS creates an OSFS rooted at root.
func NewOSFS(root string) *OSFS {
	return &OSFS{root: root}
}

// Root returns the configured root directory.
func (fs *OSFS) Root() string { return fs.root }

func (fs *OSFS) resolve(p string) string {
	native := filepath.FromSlash(p)
	if fs.root == "" {
		return filepath.Clean(native)
	}
	return filepath.Join(fs.root, native)
}

func (fs *OSFS) ReadFile(_ context.Context, p string) ([]byte, error) {
	// #nosec G304 -- paths come from the document set under the configured root
	data, err := os.ReadFile(fs.resolve(p))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound{Path: p}
		}
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	return data, nil
}

func (fs *OSFS) Exists(_ context.Context, p string) (bool, error) {
	_, err := os.Stat(fs.resolve(p))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", p, err)
}

func (fs *OSFS) WriteFile(_ context.Context, p string, data []byte) error {
	full := fs.resolve(p)
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return fmt.Errorf("create directory for %s: %w", p, err)
	}
	if err := os.WriteFile(full, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", p, err)
	}
	return nil
}
