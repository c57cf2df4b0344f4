package render

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/docrender/internal/docset"
	"git.home.luguber.info/inful/docrender/internal/logfields"
	"git.home.luguber.info/inful/docrender/internal/markdown"
	"git.home.luguber.info/inful/docrender/internal/rendercontext"
)

// FormatHTML is the format tag of HTMLFormatter.
const FormatHTML = "html"

const defaultLayout = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="generator" content="docrender">
<title>{{ .Title }}</title>
{{- with .Stylesheet }}
<link rel="stylesheet" href="{{ . }}">
{{- end }}
</head>
<body>
<main>
{{ .Content }}
</main>
</body>
</html>
`

type page struct {
	Title      string
	Stylesheet string
	Content    template.HTML
}

// HTMLFormatter renders markdown to a standalone HTML page. Link and image
// destinations are resolved through the context, |name| references are
// replaced with the bound variables and fenced code is highlighted.
type HTMLFormatter struct {
	layout     *template.Template
	style      string
	stylesheet string
}

// HTMLOption configures an HTMLFormatter.
type HTMLOption func(*HTMLFormatter)

// WithHighlightStyle selects the chroma style for code blocks.
func WithHighlightStyle(style string) HTMLOption {
	return func(f *HTMLFormatter) { f.style = style }
}

// WithStylesheet links a stylesheet from every page. The reference is
// resolved like an image, relative to the rendered document.
func WithStylesheet(href string) HTMLOption {
	return func(f *HTMLFormatter) { f.stylesheet = href }
}

// WithLayout replaces the page template. It receives .Title, .Stylesheet
// and .Content.
func WithLayout(t *template.Template) HTMLOption {
	return func(f *HTMLFormatter) { f.layout = t }
}

func NewHTMLFormatter(opts ...HTMLOption) *HTMLFormatter {
	f := &HTMLFormatter{
		layout: template.Must(template.New("page").Parse(defaultLayout)),
		style:  "github",
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *HTMLFormatter) Format() string { return FormatHTML }

func (f *HTMLFormatter) Render(ctx context.Context, node docset.Node, rc *rendercontext.Context) ([]byte, error) {
	md := markdown.New(
		goldmark.WithExtensions(
			highlighting.NewHighlighting(
				highlighting.WithStyle(f.style),
				highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
			),
		),
		goldmark.WithRendererOptions(
			renderer.WithNodeRenderers(util.Prioritized(newReferenceRenderer(ctx, rc), 100)),
		),
	)

	var body bytes.Buffer
	if err := md.Renderer().Render(&body, node.Source(), node.Root()); err != nil {
		return nil, err
	}

	p := page{
		Title:   rc.Title(),
		Content: template.HTML(body.String()), //nolint:gosec // produced by goldmark without unsafe HTML
	}
	if p.Title == "" {
		p.Title = markdown.Title(node)
	}
	if p.Title == "" {
		p.Title = rc.CurrentFileName()
	}
	if f.stylesheet != "" {
		href, err := rc.AssetURL(ctx, f.stylesheet)
		if err != nil {
			return nil, err
		}
		p.Stylesheet = href
	}

	var out bytes.Buffer
	if err := f.layout.Execute(&out, p); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// referenceRenderer overrides goldmark's link and image rendering with
// context-resolved destinations and renders substitution nodes.
type referenceRenderer struct {
	html.Config
	ctx context.Context
	rc  *rendercontext.Context
}

func newReferenceRenderer(ctx context.Context, rc *rendercontext.Context) *referenceRenderer {
	return &referenceRenderer{Config: html.NewConfig(), ctx: ctx, rc: rc}
}

func (r *referenceRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(gmast.KindLink, r.renderLink)
	reg.Register(gmast.KindImage, r.renderImage)
	reg.Register(markdown.KindSubstitution, r.renderSubstitution)
}

func (r *referenceRenderer) writeURL(w util.BufWriter, u string) {
	dest := []byte(u)
	if r.Unsafe || !html.IsDangerousURL(dest) {
		_, _ = w.Write(util.EscapeHTML(util.URLEscape(dest, true)))
	}
}

func (r *referenceRenderer) renderLink(w util.BufWriter, _ []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
	n := node.(*gmast.Link)
	if !entering {
		_, _ = w.WriteString("</a>")
		return gmast.WalkContinue, nil
	}
	u, err := r.rc.Resolve(r.ctx, string(n.Destination))
	if err != nil {
		return gmast.WalkStop, err
	}
	_, _ = w.WriteString(`<a href="`)
	r.writeURL(w, u)
	_ = w.WriteByte('"')
	if n.Title != nil {
		_, _ = w.WriteString(` title="`)
		r.Writer.Write(w, n.Title)
		_ = w.WriteByte('"')
	}
	if n.Attributes() != nil {
		html.RenderAttributes(w, n, html.LinkAttributeFilter)
	}
	_ = w.WriteByte('>')
	return gmast.WalkContinue, nil
}

func (r *referenceRenderer) renderImage(w util.BufWriter, source []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
	if !entering {
		return gmast.WalkContinue, nil
	}
	n := node.(*gmast.Image)
	u, err := r.rc.AssetURL(r.ctx, string(n.Destination))
	if err != nil {
		return gmast.WalkStop, err
	}
	_, _ = w.WriteString(`<img src="`)
	r.writeURL(w, u)
	_, _ = w.WriteString(`" alt="`)
	_, _ = w.Write(util.EscapeHTML([]byte(r.altText(n, source))))
	_ = w.WriteByte('"')
	if n.Title != nil {
		_, _ = w.WriteString(` title="`)
		r.Writer.Write(w, n.Title)
		_ = w.WriteByte('"')
	}
	if n.Attributes() != nil {
		html.RenderAttributes(w, n, html.ImageAttributeFilter)
	}
	if r.XHTML {
		_, _ = w.WriteString(" />")
	} else {
		_ = w.WriteByte('>')
	}
	return gmast.WalkSkipChildren, nil
}

func (r *referenceRenderer) altText(n gmast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch v := c.(type) {
		case *gmast.Text:
			buf.Write(v.Segment.Value(source))
		case *gmast.String:
			buf.Write(v.Value)
		case *markdown.Substitution:
			buf.WriteString(r.substitute(v, source))
		}
		return gmast.WalkContinue, nil
	})
	return buf.String()
}

func (r *referenceRenderer) renderSubstitution(w util.BufWriter, source []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
	if entering {
		_, _ = w.Write(util.EscapeHTML([]byte(r.substitute(node.(*markdown.Substitution), source))))
	}
	return gmast.WalkSkipChildren, nil
}

// substitute returns the variable value, or the literal |name| text when the
// variable is not defined for the document.
func (r *referenceRenderer) substitute(n *markdown.Substitution, source []byte) string {
	if v, ok := r.rc.Variable(n.Name); ok {
		return v
	}
	slog.Debug("Undefined substitution variable",
		logfields.Document(r.rc.CurrentFileName()),
		slog.String("variable", n.Name))
	return string(n.Segment.Value(source))
}
