// Package urlgen resolves symbolic references found in a document (link
// table names, document identifiers, anchors, labels, relative assets) into
// URLs valid from the document's own output location.
package urlgen

import (
	"context"
	"log/slog"
	"path"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/docrender/internal/foundation/errors"
	"git.home.luguber.info/inful/docrender/internal/logfields"
	"git.home.luguber.info/inful/docrender/internal/metas"
	"git.home.luguber.info/inful/docrender/internal/router"
	"git.home.luguber.info/inful/docrender/internal/storage"
)

// Context is the per-document state the generator resolves against.
type Context interface {
	CurrentFileName() string
	CurrentAbsolutePath() string
	Link(name string) (string, bool)
	Metas() metas.Store
	Origin() storage.Source
	RecordGap(target string)
}

// Generator resolves references. It holds no per-document state and is safe
// to share between render workers.
type Generator struct {
	router router.Router
	policy Policy
}

// New creates a Generator using r to locate documents and policy for gaps.
func New(r router.Router, policy Policy) *Generator {
	if policy == "" {
		policy = PolicyPlaceholder
	}
	return &Generator{router: r, policy: policy}
}

// Policy returns the gap policy applied by the generator.
func (g *Generator) Policy() Policy { return g.policy }

var schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*:`)

// IsExternal reports whether target is already a URL that must not be
// rewritten: it has a scheme, is protocol-relative or site-absolute.
func IsExternal(target string) bool {
	return schemeRe.MatchString(target) || strings.HasPrefix(target, "/")
}

// Resolve turns target into a URL relative to the current document.
//
// Lookup order: external URL, active link table, local #anchor, document
// identifier (relative to the current directory, then to the source root)
// with optional #anchor, set-wide label. Anything else is a resolution gap
// handled according to the policy.
func (g *Generator) Resolve(ctx context.Context, rc Context, target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" || IsExternal(target) {
		return target, nil
	}
	if u, ok := rc.Link(target); ok {
		return u, nil
	}

	from, err := g.router.Generate(rc.CurrentFileName())
	if err != nil {
		return "", err
	}
	store := rc.Metas()

	if frag, ok := strings.CutPrefix(target, "#"); ok {
		if store != nil {
			if e, found := store.Get(rc.CurrentFileName()); found && e.HasAnchor(frag) {
				return target, nil
			}
		}
		return g.gap(ctx, rc, target)
	}

	ref, frag, hasFrag := strings.Cut(target, "#")
	if store != nil {
		if e, found := g.lookupDocument(store, rc.CurrentFileName(), ref); found {
			if hasFrag && frag != "" && !e.HasAnchor(frag) {
				return g.gap(ctx, rc, target)
			}
			to, err := g.router.Generate(e.File)
			if err != nil {
				return "", err
			}
			u := RelativeURL(from, to)
			if hasFrag && frag != "" {
				u += "#" + frag
			}
			return u, nil
		}
		if !hasFrag {
			if e, found := store.FindLabel(target); found {
				to, err := g.router.Generate(e.File)
				if err != nil {
					return "", err
				}
				u := RelativeURL(from, to)
				if !containsString(e.Labels, target) {
					u += "#" + target
				}
				return u, nil
			}
		}
	}
	return g.gap(ctx, rc, target)
}

func (g *Generator) lookupDocument(store metas.Store, current, ref string) (metas.Entry, bool) {
	if ref == "" {
		return metas.Entry{}, false
	}
	if dir := path.Dir(current); dir != "." {
		if e, ok := store.Lookup(path.Join(dir, ref)); ok {
			return e, true
		}
	}
	return store.Lookup(ref)
}

// AssetURL rewrites a relative asset reference (an image source) so that it
// stays valid from the current document's output location. Assets are
// expected at the same source-relative path below the output root. A missing
// asset is logged, never fatal.
func (g *Generator) AssetURL(ctx context.Context, rc Context, src string) (string, error) {
	src = strings.TrimSpace(src)
	if src == "" || IsExternal(src) || strings.HasPrefix(src, "#") {
		return src, nil
	}
	asset := path.Join(path.Dir(rc.CurrentFileName()), src)
	if asset == ".." || strings.HasPrefix(asset, "../") {
		slog.Warn("Asset escapes the source root",
			logfields.Document(rc.CurrentFileName()),
			logfields.LinkTarget(src))
		return src, nil
	}
	if origin := rc.Origin(); origin != nil {
		abs := path.Join(rc.CurrentAbsolutePath(), src)
		if ok, err := origin.Exists(ctx, abs); err == nil && !ok {
			slog.Warn("Referenced asset not found in source",
				logfields.Document(rc.CurrentFileName()),
				logfields.Path(abs))
		}
	}
	from, err := g.router.Generate(rc.CurrentFileName())
	if err != nil {
		return "", err
	}
	return RelativeURL(from, asset), nil
}

// Unresolved handles target as a resolution gap under the pass policy. It
// is for references a formatter cannot carry into its output.
func (g *Generator) Unresolved(ctx context.Context, rc Context, target string) (string, error) {
	return g.gap(ctx, rc, target)
}

func (g *Generator) gap(_ context.Context, rc Context, target string) (string, error) {
	rc.RecordGap(target)
	if g.policy == PolicyFail {
		return "", errors.ResolutionError("unresolved link target").
			WithCause(&ResolutionError{Document: rc.CurrentFileName(), Target: target}).
			WithContext("document", rc.CurrentFileName()).
			WithContext("link_target", target).
			Build()
	}
	slog.Warn("Unresolved link target",
		logfields.Document(rc.CurrentFileName()),
		logfields.LinkTarget(target))
	return Placeholder(target), nil
}

// RelativeURL returns the path of route to relative to the directory of
// route from. Both routes are output-relative, slash-separated files.
func RelativeURL(from, to string) string {
	fromDir := splitDir(path.Dir(from))
	toParts := strings.Split(to, "/")
	toDir, file := toParts[:len(toParts)-1], toParts[len(toParts)-1]

	common := 0
	for common < len(fromDir) && common < len(toDir) && fromDir[common] == toDir[common] {
		common++
	}
	parts := make([]string, 0, len(fromDir)-common+len(toDir)-common+1)
	for i := common; i < len(fromDir); i++ {
		parts = append(parts, "..")
	}
	parts = append(parts, toDir[common:]...)
	parts = append(parts, file)
	return strings.Join(parts, "/")
}

func splitDir(dir string) []string {
	if dir == "." || dir == "/" || dir == "" {
		return nil
	}
	return strings.Split(strings.Trim(dir, "/"), "/")
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
