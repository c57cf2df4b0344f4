package storage

import (
	"context"
	"path"
	"sort"
	"strings"
	"sync"
)

// MemFS is an in-memory FS for tests and dry runs. Failures can be injected
// per path with FailWrites.
type MemFS struct {
	mu     sync.RWMutex
	files  map[string][]byte
	fail   map[string]error
	writes []string
}

// NewMemFS creates an empty MemFS.
func NewMemFS() *MemFS {
	return &MemFS{
		files: make(map[string][]byte),
		fail:  make(map[string]error),
	}
}

func memKey(p string) string {
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}

// Add stores a file without recording a write.
func (m *MemFS) Add(p string, data []byte) *MemFS {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[memKey(p)] = append([]byte(nil), data...)
	return m
}

// FailWrites makes every WriteFile to p return err.
func (m *MemFS) FailWrites(p string, err error) *MemFS {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[memKey(p)] = err
	return m
}

func (m *MemFS) ReadFile(_ context.Context, p string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[memKey(p)]
	if !ok {
		return nil, ErrNotFound{Path: p}
	}
	return append([]byte(nil), data...), nil
}

func (m *MemFS) Exists(_ context.Context, p string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[memKey(p)]
	return ok, nil
}

func (m *MemFS) WriteFile(_ context.Context, p string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memKey(p)
	if err, ok := m.fail[key]; ok {
		return err
	}
	m.files[key] = append([]byte(nil), data...)
	m.writes = append(m.writes, key)
	return nil
}

// Files returns all stored paths, sorted.
func (m *MemFS) Files() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.files))
	for k := range m.files {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Writes returns the paths written through WriteFile, in write order.
func (m *MemFS) Writes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.writes...)
}
