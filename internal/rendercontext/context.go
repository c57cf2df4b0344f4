// Package rendercontext holds the mutable state shared by the renderers
// during one pass: pass-invariant collaborators plus the per-document file,
// destination, link table and variable table.
//
// A Context is rebound for every document. Bind replaces all per-document
// state, so nothing accumulated for one document is visible while rendering
// the next. A Context is not safe for concurrent use; parallel passes give
// every worker its own Clone.
package rendercontext

import (
	"context"
	"maps"
	"slices"

	"git.home.luguber.info/inful/docrender/internal/docset"
	"git.home.luguber.info/inful/docrender/internal/metas"
	"git.home.luguber.info/inful/docrender/internal/storage"
	"git.home.luguber.info/inful/docrender/internal/urlgen"
)

// Phase is the lifecycle position of a Context within one document cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFileBound
	PhaseTablesBound
	PhaseRendered
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseFileBound:
		return "file-bound"
	case PhaseTablesBound:
		return "tables-bound"
	case PhaseRendered:
		return "rendered"
	default:
		return "unknown"
	}
}

// Options are the pass-invariant collaborators of a Context.
type Options struct {
	OutputRoot string
	Format     string
	Origin     storage.Source
	Metas      metas.Store
	Generator  *urlgen.Generator
}

// Context is the per-pass render state.
type Context struct {
	opts Options

	phase       Phase
	fileName    string
	absPath     string
	destination string
	title       string
	links       map[string]string
	variables   map[string]string
	gaps        []string
}

// New creates an idle Context.
func New(opts Options) *Context {
	return &Context{
		opts:      opts,
		links:     map[string]string{},
		variables: map[string]string{},
	}
}

// Clone returns an idle Context sharing only the pass-invariant collaborators.
func (c *Context) Clone() *Context {
	return New(c.opts)
}

func (c *Context) OutputRoot() string { return c.opts.OutputRoot }
func (c *Context) Format() string { return c.opts.Format }
func (c *Context) Origin() storage.Source { return c.opts.Origin }
func (c *Context) Metas() metas.Store { return c.opts.Metas }
func (c *Context) Generator() *urlgen.Generator { return c.opts.Generator }
func (c *Context) Phase() Phase { return c.phase }
func (c *Context) CurrentFileName() string { return c.fileName }
func (c *Context) CurrentAbsolutePath() string { return c.absPath }
func (c *Context) Destination() string { return c.destination }
func (c *Context) Title() string { return c.title }
func (c *Context) Links() map[string]string { return maps.Clone(c.links) }
func (c *Context) Variables() map[string]string { return maps.Clone(c.variables) }
func (c *Context) Gaps() []string { return slices.Clone(c.gaps) }

// Link returns the URL of a link table entry of the bound document.
func (c *Context) Link(name string) (string, bool) {
	u, ok := c.links[name]
	return u, ok
}

// Variable returns the value of a substitution variable of the bound document.
func (c *Context) Variable(name string) (string, bool) {
	v, ok := c.variables[name]
	return v, ok
}

// SetCurrentFileName starts a new document cycle for file, discarding the
// previous document's tables and gaps.
func (c *Context) SetCurrentFileName(file string) {
	c.fileName = file
	c.absPath = ""
	c.destination = ""
	c.title = ""
	clear(c.links)
	clear(c.variables)
	c.gaps = nil
	c.phase = PhaseFileBound
}

func (c *Context) SetCurrentAbsolutePath(dir string) { c.absPath = dir }
func (c *Context) SetDestination(p string) { c.destination = p }
func (c *Context) SetTitle(title string) { c.title = title }

// SetLink adds one link table entry. The first setter call moves the Context
// to PhaseTablesBound.
func (c *Context) SetLink(name, url string) {
	c.links[name] = url
	c.phase = PhaseTablesBound
}

func (c *Context) SetVariable(name, value string) {
	c.variables[name] = value
	c.phase = PhaseTablesBound
}

// Bind applies every per-document setter for doc. sourceDir is the absolute
// source directory of doc and destination its planned output path. Bind
// always leaves the Context tables-bound, even for empty tables.
func (c *Context) Bind(doc *docset.Document, sourceDir, destination string) {
	c.SetCurrentFileName(doc.File())
	c.SetCurrentAbsolutePath(sourceDir)
	c.SetDestination(destination)
	c.SetTitle(doc.Title())
	for name, url := range doc.Links() {
		c.SetLink(name, url)
	}
	for name, value := range doc.Variables() {
		c.SetVariable(name, value)
	}
	c.phase = PhaseTablesBound
}

// MarkRendered records that the bound document has been rendered.
func (c *Context) MarkRendered() { c.phase = PhaseRendered }

// Release returns the Context to idle, dropping all per-document state.
func (c *Context) Release() {
	c.SetCurrentFileName("")
	c.phase = PhaseIdle
}

// RecordGap notes an unresolved reference of the bound document.
func (c *Context) RecordGap(target string) {
	c.gaps = append(c.gaps, target)
}

// Resolve resolves target through the pass's URL generator.
func (c *Context) Resolve(ctx context.Context, target string) (string, error) {
	return c.opts.Generator.Resolve(ctx, c, target)
}

// Unresolved records target as a gap and applies the pass policy.
func (c *Context) Unresolved(ctx context.Context, target string) (string, error) {
	return c.opts.Generator.Unresolved(ctx, c, target)
}

// AssetURL rewrites a relative asset reference through the URL generator.
func (c *Context) AssetURL(ctx context.Context, src string) (string, error) {
	return c.opts.Generator.AssetURL(ctx, c, src)
}
