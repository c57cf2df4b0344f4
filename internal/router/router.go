// Package router maps document file identifiers to output-relative paths.
//
// Routing is pure: the same file always yields the same route, and a Plan
// over a whole set fails with a configuration fault when two documents would
// be written to the same destination.
package router

import (
	"path"
	"strings"

	"git.home.luguber.info/inful/docrender/internal/foundation/errors"
)

// Router generates the output-relative path of a document.
type Router interface {
	Generate(file string) (string, error)
}

// Rule is a statically registered route for one kind of document.
//
// Match is a path.Match glob against the file identifier. A file matching
// the rule is routed to Prefix + file with its extension replaced by
// Extension (Extension "" keeps the default extension of the router).
// StripDir drops Match's literal directory prefix before Prefix is applied.
type Rule struct {
	Kind      string `yaml:"kind"`
	Match     string `yaml:"match"`
	Prefix    string `yaml:"prefix"`
	Extension string `yaml:"extension"`
	StripDir  string `yaml:"strip_dir"`
}

// RuleRouter applies the first matching Rule, falling back to swapping the
// source extension for the default extension.
type RuleRouter struct {
	extension string
	rules     []Rule
}

// New creates a RuleRouter. extension is the default output extension
// including the dot (".html").
func New(extension string, rules ...Rule) (*RuleRouter, error) {
	for i, r := range rules {
		if r.Match == "" {
			return nil, errors.ConfigError("route rule without match pattern").
				WithContext("index", i).
				Build()
		}
		if _, err := path.Match(r.Match, ""); err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "invalid route pattern").
				Fatal().
				WithContext("match", r.Match).
				Build()
		}
	}
	return &RuleRouter{extension: extension, rules: append([]Rule(nil), rules...)}, nil
}

// ExtensionFor returns the conventional output extension of a format tag.
func ExtensionFor(format string) string {
	switch format {
	case "markdown", "md":
		return ".md"
	case "":
		return ".html"
	default:
		return "." + format
	}
}

// Generate returns the output-relative route of file.
func (r *RuleRouter) Generate(file string) (string, error) {
	clean := path.Clean(strings.TrimPrefix(file, "/"))
	if file == "" || clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", errors.ValidationError("file identifier cannot be routed").
			WithContext("document", file).
			Build()
	}

	ext := r.extension
	target := clean
	for _, rule := range r.rules {
		ok, _ := path.Match(rule.Match, clean)
		if !ok {
			continue
		}
		if rule.Extension != "" {
			ext = rule.Extension
		}
		if rule.StripDir != "" {
			target = strings.TrimPrefix(target, strings.TrimSuffix(rule.StripDir, "/")+"/")
		}
		target = path.Join(rule.Prefix, target)
		break
	}
	return Normalize(strings.TrimSuffix(target, path.Ext(target)) + ext), nil
}

// Normalize collapses runs of '/' into one. It is idempotent and does not
// otherwise touch the path (no "." or ".." folding).
func Normalize(p string) string {
	if !strings.Contains(p, "//") {
		return p
	}
	var b strings.Builder
	b.Grow(len(p))
	prevSlash := false
	for i := 0; i < len(p); i++ {
		c := p[i]
		if c == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Destination joins an output root and a route into a normalized destination path.
func Destination(outputRoot, route string) string {
	return Normalize(outputRoot + "/" + route)
}
