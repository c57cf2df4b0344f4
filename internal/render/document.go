// Package render turns parsed documents into output bytes and orchestrates a
// render pass over a whole documentation set.
//
// DocumentRenderer renders one document through the Formatter registered
// for the pass's format. SetRenderer binds each document into the pass's
// rendercontext.Context, renders it and writes the result to the planned
// destination.
package render

import (
	"context"
	"sort"
	"sync"

	"git.home.luguber.info/inful/docrender/internal/docset"
	"git.home.luguber.info/inful/docrender/internal/foundation/errors"
	"git.home.luguber.info/inful/docrender/internal/rendercontext"
)

// Formatter produces the bytes of one output format. Render reads the bound
// document's state from rc and must not write files.
type Formatter interface {
	Format() string
	Render(ctx context.Context, node docset.Node, rc *rendercontext.Context) ([]byte, error)
}

// DocumentRenderer dispatches to the Formatter registered for rc.Format().
type DocumentRenderer struct {
	mu         sync.RWMutex
	formatters map[string]Formatter
}

// NewDocumentRenderer creates a renderer with the given formatters.
func NewDocumentRenderer(formatters ...Formatter) *DocumentRenderer {
	r := &DocumentRenderer{formatters: make(map[string]Formatter, len(formatters))}
	for _, f := range formatters {
		r.Register(f)
	}
	return r
}

// DefaultDocumentRenderer registers the HTML and markdown formatters.
func DefaultDocumentRenderer() *DocumentRenderer {
	return NewDocumentRenderer(NewHTMLFormatter(), NewMarkdownFormatter())
}

// Register adds or replaces the formatter for f.Format().
func (r *DocumentRenderer) Register(f Formatter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formatters[f.Format()] = f
}

// Formats lists the registered format tags, sorted.
func (r *DocumentRenderer) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.formatters))
	for k := range r.formatters {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Formatter returns the formatter for format or a configuration fault.
func (r *DocumentRenderer) Formatter(format string) (Formatter, error) {
	r.mu.RLock()
	f, ok := r.formatters[format]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.ConfigError("unknown output format").
			WithCause(ErrUnknownFormat).
			WithContext("format", format).
			WithContext("available", r.Formats()).
			Build()
	}
	return f, nil
}

// Render renders node with the state bound in rc. rc must be tables-bound;
// on success it is marked rendered.
func (r *DocumentRenderer) Render(ctx context.Context, node docset.Node, rc *rendercontext.Context) ([]byte, error) {
	if rc == nil || rc.Phase() != rendercontext.PhaseTablesBound {
		return nil, errors.InternalError("render context not ready").
			WithCause(ErrContextNotBound).
			Build()
	}
	if node == nil || node.Root() == nil {
		return nil, errors.RenderError("cannot render document").
			WithCause(ErrNoNode).
			WithContext("document", rc.CurrentFileName()).
			Build()
	}
	f, err := r.Formatter(rc.Format())
	if err != nil {
		return nil, err
	}

	out, err := f.Render(ctx, node, rc)
	if err != nil {
		if errors.IsClassified(err) {
			return nil, err
		}
		return nil, errors.WrapError(err, errors.CategoryRender, "failed to render document").
			WithContext("document", rc.CurrentFileName()).
			WithContext("format", rc.Format()).
			Build()
	}
	rc.MarkRendered()
	return out, nil
}
