// Package docset defines the document set handed from the parsing stage to
// the rendering core. Values in this package are built once and read-only
// afterwards; accessors return copies of the per-document tables.
package docset

import (
	"maps"

	gmast "github.com/yuin/goldmark/ast"

	"git.home.luguber.info/inful/docrender/internal/foundation/errors"
)

// Kind discriminates the variants of documentation sets. Only guide sets are
// rendered by this module; other kinds are rejected at the render boundary.
type Kind string

const (
	KindGuide Kind = "guide"
	KindAPI   Kind = "api"
)

// Node is the parsed tree of one document. It is opaque to the orchestration
// layer and only interpreted by formatters.
type Node interface {
	Source() []byte
	Root() gmast.Node
}

// Source locates the documents of a set.
type Source struct {
	// DSN addresses the backend the documents were read from (file:///docs, mem://).
	DSN string
	// Paths are source roots inside the DSN. The first one is the root used to
	// compute absolute document directories.
	Paths []string
}

// Root returns the primary source root, or "" when none is configured.
func (s Source) Root() string {
	if len(s.Paths) == 0 {
		return ""
	}
	return s.Paths[0]
}

// Document is one parsed unit of content.
type Document struct {
	file      string
	title     string
	node      Node
	links     map[string]string
	variables map[string]string
}

// NewDocument builds a Document. The link and variable maps are copied.
func NewDocument(file string, node Node, links, variables map[string]string) *Document {
	return &Document{
		file:      file,
		node:      node,
		links:     cloneMap(links),
		variables: cloneMap(variables),
	}
}

// WithTitle returns the document with its display title set.
func (d *Document) WithTitle(title string) *Document {
	d.title = title
	return d
}

// File returns the source-relative file identifier.
func (d *Document) File() string { return d.file }

// Title returns the display title ("" when unknown).
func (d *Document) Title() string { return d.title }

// Node returns the parsed tree.
func (d *Document) Node() Node { return d.node }

// Links returns a copy of the link-name to URL table.
func (d *Document) Links() map[string]string { return cloneMap(d.links) }

// Variables returns a copy of the variable table.
func (d *Document) Variables() map[string]string { return cloneMap(d.variables) }

// Set is an ordered collection of documents sharing one source and one output root.
type Set struct {
	Kind           Kind
	Source         Source
	OutputLocation string
	documents      []*Document
}

// New creates a document set and rejects duplicate file identifiers.
func New(kind Kind, source Source, outputLocation string, docs ...*Document) (*Set, error) {
	seen := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		if d == nil {
			return nil, errors.ValidationError("nil document in set").Build()
		}
		if d.file == "" {
			return nil, errors.ValidationError("document without file identifier").Build()
		}
		if _, dup := seen[d.file]; dup {
			return nil, errors.ValidationError("duplicate document file identifier").
				WithContext("document", d.file).
				Build()
		}
		seen[d.file] = struct{}{}
	}
	return &Set{
		Kind:           kind,
		Source:         source,
		OutputLocation: outputLocation,
		documents:      append([]*Document(nil), docs...),
	}, nil
}

// Documents returns the documents in iteration order.
func (s *Set) Documents() []*Document {
	return append([]*Document(nil), s.documents...)
}

// Len returns the number of documents.
func (s *Set) Len() int { return len(s.documents) }

// Lookup finds a document by file identifier.
func (s *Set) Lookup(file string) (*Document, bool) {
	for _, d := range s.documents {
		if d.file == file {
			return d, true
		}
	}
	return nil, false
}

// RequireGuide fails fast when the set is not a guide set.
func (s *Set) RequireGuide() error {
	if s == nil {
		return errors.ConfigError("no documentation set").Build()
	}
	if s.Kind != KindGuide {
		return errors.ConfigError("invalid documentation set").
			WithContext("kind", string(s.Kind)).
			WithContext("expected", string(KindGuide)).
			Build()
	}
	return nil
}

func cloneMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	maps.Copy(out, m)
	return out
}
