// Package metas holds cross-document metadata produced while parsing: the
// title, heading anchors and global labels of every document in a set.
//
// The rendering core only reads a Store. Memory is the in-process
// implementation; SQLite persists a Memory between the parse and render
// stages.
package metas

import (
	"path"
	"slices"
	"sort"
	"strings"
	"sync"
)

// Entry is the metadata of one document.
type Entry struct {
	File    string
	Title   string
	Anchors []string
	// Labels are explicit, set-wide reference targets declared by the document.
	Labels []string
}

// HasAnchor reports whether the document defines the anchor or label.
func (e Entry) HasAnchor(name string) bool {
	return slices.Contains(e.Anchors, name) || slices.Contains(e.Labels, name)
}

// Store is read-only access to the metadata of a document set.
type Store interface {
	// Get returns the entry for an exact file identifier.
	Get(file string) (Entry, bool)
	// Lookup resolves a document reference with or without its extension.
	Lookup(ref string) (Entry, bool)
	// FindLabel returns the document defining a set-wide label. Heading
	// anchors qualify only when exactly one document defines them.
	FindLabel(label string) (Entry, bool)
	// Files returns all file identifiers, sorted.
	Files() []string
}

// Memory is a map-backed Store. It is safe for concurrent readers.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemory creates a store holding the given entries.
func NewMemory(entries ...Entry) *Memory {
	m := &Memory{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		m.Put(e)
	}
	return m
}

// Put adds or replaces the entry for e.File.
func (m *Memory) Put(e Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.Anchors = append([]string(nil), e.Anchors...)
	e.Labels = append([]string(nil), e.Labels...)
	m.entries[e.File] = e
}

func (m *Memory) Get(file string) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[file]
	return e, ok
}

func (m *Memory) Lookup(ref string) (Entry, bool) {
	ref = strings.TrimPrefix(path.Clean("/"+ref), "/")
	if e, ok := m.Get(ref); ok {
		return e, true
	}
	if path.Ext(ref) != "" {
		return Entry{}, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var match Entry
	found := 0
	for file, e := range m.entries {
		if strings.TrimSuffix(file, path.Ext(file)) == ref {
			match = e
			found++
		}
	}
	return match, found == 1
}

func (m *Memory) FindLabel(label string) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, file := range m.sortedFiles() {
		if e := m.entries[file]; slices.Contains(e.Labels, label) {
			return e, true
		}
	}
	var match Entry
	found := 0
	for _, e := range m.entries {
		if slices.Contains(e.Anchors, label) {
			match = e
			found++
		}
	}
	return match, found == 1
}

func (m *Memory) Files() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedFiles()
}

// Len returns the number of entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) sortedFiles() []string {
	files := make([]string, 0, len(m.entries))
	for f := range m.entries {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}
