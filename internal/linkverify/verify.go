// Package linkverify checks rendered output for broken internal links and
// forwards resolution gaps to NATS.
package linkverify

import (
	"context"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/docrender/internal/foundation/errors"
	"git.home.luguber.info/inful/docrender/internal/logfields"
	"git.home.luguber.info/inful/docrender/internal/urlgen"
)

// Reason classifies a Finding.
type Reason string

const (
	// ReasonUnresolved marks a placeholder emitted for a resolution gap.
	ReasonUnresolved    Reason = "unresolved"
	ReasonMissingFile   Reason = "missing_file"
	ReasonMissingAnchor Reason = "missing_anchor"
)

// Finding is one broken link.
type Finding struct {
	Page   string `json:"page"` // slash path relative to the verified root
	URL    string `json:"url"`
	Tag    string `json:"tag"`
	Line   int    `json:"line"`
	Reason Reason `json:"reason"`
}

// Report summarizes a verification run.
type Report struct {
	Pages    int       `json:"pages"`
	Links    int       `json:"links"`
	Findings []Finding `json:"findings"`
}

// OK reports whether no broken link was found.
func (r *Report) OK() bool { return len(r.Findings) == 0 }

// Verifier walks an output tree and checks every internal link of every
// HTML page. Parsed pages are cached for anchor lookups.
type Verifier struct {
	root  string
	pages map[string]*Page
}

// NewVerifier creates a verifier for the tree below root.
func NewVerifier(root string) *Verifier {
	return &Verifier{root: root, pages: map[string]*Page{}}
}

// Verify checks every .html page below the root.
func (v *Verifier) Verify(ctx context.Context) (*Report, error) {
	start := time.Now()
	pages, err := v.listPages()
	if err != nil {
		return nil, err
	}

	report := &Report{Pages: len(pages)}
	for _, rel := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := v.page(rel)
		if err != nil {
			return nil, err
		}
		for _, link := range page.Links {
			if !ShouldVerifyLink(link) {
				continue
			}
			report.Links++
			if reason, broken := v.check(rel, page, link.URL); broken {
				report.Findings = append(report.Findings, Finding{
					Page:   rel,
					URL:    link.URL,
					Tag:    link.Tag,
					Line:   link.Line,
					Reason: reason,
				})
			}
		}
	}

	slog.Info("Link verification completed",
		logfields.Path(v.root),
		slog.Int("pages", report.Pages),
		slog.Int("links", report.Links),
		slog.Int("broken", len(report.Findings)),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return report, nil
}

func (v *Verifier) listPages() ([]string, error) {
	info, err := os.Stat(v.root)
	if err != nil || !info.IsDir() {
		return nil, errors.ConfigError("output directory does not exist").
			WithCause(err).
			WithContext("path", v.root).
			Build()
	}
	var pages []string
	err = filepath.WalkDir(v.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".html") {
			return nil
		}
		rel, err := filepath.Rel(v.root, p)
		if err != nil {
			return err
		}
		pages = append(pages, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to walk output directory").
			WithContext("path", v.root).
			Build()
	}
	sort.Strings(pages)
	return pages, nil
}

func (v *Verifier) page(rel string) (*Page, error) {
	if p, ok := v.pages[rel]; ok {
		return p, nil
	}
	p, err := ParseFile(filepath.Join(v.root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, err
	}
	v.pages[rel] = p
	return p, nil
}

// check resolves target relative to the page at rel.
func (v *Verifier) check(rel string, page *Page, target string) (Reason, bool) {
	if strings.HasPrefix(target, urlgen.UnresolvedPrefix) {
		return ReasonUnresolved, true
	}
	u, err := url.Parse(target)
	if err != nil {
		return ReasonMissingFile, true
	}
	fragment := u.Fragment
	if u.Path == "" {
		if fragment != "" && !page.HasID(fragment) {
			return ReasonMissingAnchor, true
		}
		return "", false
	}

	var resolved string
	if strings.HasPrefix(u.Path, "/") {
		resolved = path.Clean(strings.TrimPrefix(u.Path, "/"))
	} else {
		resolved = path.Join(path.Dir(rel), u.Path)
	}
	if resolved == ".." || strings.HasPrefix(resolved, "../") {
		return ReasonMissingFile, true
	}
	full := filepath.Join(v.root, filepath.FromSlash(resolved))
	info, err := os.Stat(full)
	if err != nil {
		return ReasonMissingFile, true
	}
	if info.IsDir() {
		resolved = path.Join(resolved, "index.html")
		if _, err := os.Stat(filepath.Join(v.root, filepath.FromSlash(resolved))); err != nil {
			return ReasonMissingFile, true
		}
	}

	if fragment == "" || !strings.EqualFold(path.Ext(resolved), ".html") {
		return "", false
	}
	targetPage, err := v.page(resolved)
	if err != nil || !targetPage.HasID(fragment) {
		return ReasonMissingAnchor, true
	}
	return "", false
}
