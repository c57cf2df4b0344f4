package render

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docrender/internal/docset"
	"git.home.luguber.info/inful/docrender/internal/foundation/errors"
	"git.home.luguber.info/inful/docrender/internal/markdown"
	"git.home.luguber.info/inful/docrender/internal/metas"
	"git.home.luguber.info/inful/docrender/internal/rendercontext"
	"git.home.luguber.info/inful/docrender/internal/router"
	"git.home.luguber.info/inful/docrender/internal/storage"
	"git.home.luguber.info/inful/docrender/internal/urlgen"
)

func newContext(t *testing.T, format string, entries ...metas.Entry) *rendercontext.Context {
	t.Helper()
	r, err := router.New(router.ExtensionFor(format))
	require.NoError(t, err)
	return rendercontext.New(rendercontext.Options{
		OutputRoot: "/out",
		Format:     format,
		Origin:     storage.NewMemFS().Add("/src/logo.png", []byte("png")),
		Metas:      metas.NewMemory(entries...),
		Generator:  urlgen.New(r, urlgen.PolicyPlaceholder),
	})
}

const plainBody = "# Plain\n\nNo links, no variables.\n\n```go\nfunc main() {}\n```\n"

func TestRenderEmptyTablesRoundTrip(t *testing.T) {
	for _, format := range []string{FormatHTML, FormatMarkdown} {
		node := markdown.Parse([]byte(plainBody))
		renderer := DefaultDocumentRenderer()

		withEmptyMaps := newContext(t, format)
		withEmptyMaps.Bind(docset.NewDocument("plain.md", node, map[string]string{}, map[string]string{}), "/src", "/out/plain")
		first, err := renderer.Render(context.Background(), node, withEmptyMaps)
		require.NoError(t, err)

		untouched := newContext(t, format)
		untouched.Bind(docset.NewDocument("plain.md", node, nil, nil), "/src", "/out/plain")
		second, err := renderer.Render(context.Background(), node, untouched)
		require.NoError(t, err)

		require.Equal(t, first, second, format)
	}
}

func TestMarkdownWithoutReferencesIsUnchanged(t *testing.T) {
	node := markdown.Parse([]byte(plainBody))
	rc := newContext(t, FormatMarkdown)
	rc.Bind(docset.NewDocument("plain.md", node, nil, nil), "/src", "/out/plain.md")

	out, err := DefaultDocumentRenderer().Render(context.Background(), node, rc)
	require.NoError(t, err)
	require.Equal(t, plainBody, string(out))
	require.Equal(t, rendercontext.PhaseRendered, rc.Phase())
}

func TestRenderRequiresBoundContext(t *testing.T) {
	node := markdown.Parse([]byte("x"))
	rc := newContext(t, FormatHTML)

	_, err := DefaultDocumentRenderer().Render(context.Background(), node, rc)
	require.ErrorIs(t, err, ErrContextNotBound)
}

func TestRenderUnknownFormat(t *testing.T) {
	node := markdown.Parse([]byte("x"))
	rc := newContext(t, "pdf")
	rc.Bind(docset.NewDocument("x.md", node, nil, nil), "/src", "/out/x.pdf")

	_, err := DefaultDocumentRenderer().Render(context.Background(), node, rc)
	require.ErrorIs(t, err, ErrUnknownFormat)
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestRenderWithoutNode(t *testing.T) {
	rc := newContext(t, FormatHTML)
	rc.Bind(docset.NewDocument("x.md", nil, nil, nil), "/src", "/out/x.html")

	_, err := DefaultDocumentRenderer().Render(context.Background(), nil, rc)
	require.ErrorIs(t, err, ErrNoNode)
}

func TestHTMLFormatter(t *testing.T) {
	body := "# Guide\n\nWelcome to |product| |unknown|.\n\n" +
		"![logo |product|](logo.png \"Logo\")\n\n" +
		"[Jump](#guide) and [api](api.md).\n\n" +
		"```go\nfunc main() {}\n```\n"
	node := markdown.Parse([]byte(body))
	rc := newContext(t, FormatHTML,
		metas.Entry{File: "guide.md", Anchors: markdown.Anchors(node)},
		metas.Entry{File: "api.md"})
	rc.Bind(docset.NewDocument("guide.md", node, nil, map[string]string{"product": "<Docs>"}).WithTitle("The Guide"),
		"/src", "/out/guide.html")

	f := NewHTMLFormatter(WithStylesheet("css/site.css"))
	out, err := DefaultDocumentRenderer().Render(context.Background(), node, rc)
	require.NoError(t, err)
	page := string(out)
	require.Contains(t, page, "<title>The Guide</title>")
	require.Contains(t, page, "Welcome to &lt;Docs&gt; |unknown|.")
	require.Contains(t, page, `<img src="logo.png" alt="logo &lt;Docs&gt;" title="Logo">`)
	require.Contains(t, page, `<a href="#guide">Jump</a>`)
	require.Contains(t, page, `<a href="api.html">api</a>`)
	require.Contains(t, page, `class="chroma"`)
	require.NotContains(t, page, "stylesheet")

	rc.Bind(docset.NewDocument("guide.md", node, nil, nil), "/src", "/out/guide.html")
	styled, err := f.Render(context.Background(), node, rc)
	require.NoError(t, err)
	require.Contains(t, string(styled), `<link rel="stylesheet" href="css/site.css">`)
	require.Contains(t, string(styled), "<title>Guide</title>")
}

func TestHTMLFormatterFailPolicy(t *testing.T) {
	r, err := router.New(".html")
	require.NoError(t, err)
	rc := rendercontext.New(rendercontext.Options{
		Format:    FormatHTML,
		Metas:     metas.NewMemory(),
		Generator: urlgen.New(r, urlgen.PolicyFail),
	})
	node := markdown.Parse([]byte("[x](missing.md)\n"))
	rc.Bind(docset.NewDocument("a.md", node, nil, nil), "/src", "/out/a.html")

	_, err = DefaultDocumentRenderer().Render(context.Background(), node, rc)
	var gap *urlgen.ResolutionError
	require.True(t, stderrors.As(err, &gap))
	require.Equal(t, "missing.md", gap.Target)
	require.Equal(t, rendercontext.PhaseTablesBound, rc.Phase())
}

func TestFormats(t *testing.T) {
	require.Equal(t, []string{FormatHTML, FormatMarkdown}, DefaultDocumentRenderer().Formats())
}
