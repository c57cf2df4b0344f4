package rendercontext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docrender/internal/docset"
	"git.home.luguber.info/inful/docrender/internal/metas"
	"git.home.luguber.info/inful/docrender/internal/router"
	"git.home.luguber.info/inful/docrender/internal/storage"
	"git.home.luguber.info/inful/docrender/internal/urlgen"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	r, err := router.New(".html")
	require.NoError(t, err)
	return New(Options{
		OutputRoot: "/out",
		Format:     "html",
		Origin:     storage.NewMemFS(),
		Metas:      metas.NewMemory(metas.Entry{File: "a.md"}, metas.Entry{File: "b.md"}),
		Generator:  urlgen.New(r, urlgen.PolicyPlaceholder),
	})
}

func TestBindIsolatesDocuments(t *testing.T) {
	a := docset.NewDocument("a.md", nil,
		map[string]string{"home": "https://a.example"},
		map[string]string{"product": "Alpha", "only_a": "x"})
	b := docset.NewDocument("b.md", nil,
		map[string]string{"docs": "https://b.example"},
		map[string]string{"product": "Beta"})

	shared := newTestContext(t)
	shared.Bind(a, "/src", "/out/a.html")
	shared.Release()
	shared.Bind(b, "/src", "/out/b.html")

	fresh := newTestContext(t)
	fresh.Bind(b, "/src", "/out/b.html")

	require.Equal(t, fresh.Links(), shared.Links())
	require.Equal(t, fresh.Variables(), shared.Variables())
	require.Equal(t, fresh.CurrentFileName(), shared.CurrentFileName())
	require.Equal(t, fresh.Destination(), shared.Destination())

	_, ok := shared.Link("home")
	require.False(t, ok)
	_, ok = shared.Variable("only_a")
	require.False(t, ok)
}

func TestBindWithEmptyTables(t *testing.T) {
	rc := newTestContext(t)
	rc.Bind(docset.NewDocument("a.md", nil, nil, nil), "/src", "/out/a.html")

	require.Equal(t, PhaseTablesBound, rc.Phase())
	require.Empty(t, rc.Links())
	require.Empty(t, rc.Variables())
	require.Equal(t, "/src", rc.CurrentAbsolutePath())
}

func TestPhases(t *testing.T) {
	rc := newTestContext(t)
	require.Equal(t, PhaseIdle, rc.Phase())

	rc.SetCurrentFileName("a.md")
	require.Equal(t, PhaseFileBound, rc.Phase())

	rc.SetVariable("v", "1")
	require.Equal(t, PhaseTablesBound, rc.Phase())

	rc.MarkRendered()
	require.Equal(t, PhaseRendered, rc.Phase())
	require.Equal(t, "rendered", rc.Phase().String())

	rc.Release()
	require.Equal(t, PhaseIdle, rc.Phase())
	require.Empty(t, rc.CurrentFileName())
	require.Empty(t, rc.Variables())
}

func TestGapsAreScopedToDocument(t *testing.T) {
	rc := newTestContext(t)
	rc.Bind(docset.NewDocument("a.md", nil, nil, nil), "/src", "/out/a.html")

	u, err := rc.Resolve(context.Background(), "missing")
	require.NoError(t, err)
	require.Equal(t, urlgen.Placeholder("missing"), u)
	require.Equal(t, []string{"missing"}, rc.Gaps())

	rc.Bind(docset.NewDocument("b.md", nil, nil, nil), "/src", "/out/b.html")
	require.Empty(t, rc.Gaps())
}

func TestCloneSharesOnlyPassState(t *testing.T) {
	rc := newTestContext(t)
	rc.Bind(docset.NewDocument("a.md", nil, map[string]string{"x": "y"}, nil), "/src", "/out/a.html")

	clone := rc.Clone()
	require.Equal(t, PhaseIdle, clone.Phase())
	require.Empty(t, clone.Links())
	require.Equal(t, rc.OutputRoot(), clone.OutputRoot())
	require.Same(t, rc.Generator(), clone.Generator())

	clone.SetLink("z", "w")
	_, ok := rc.Link("z")
	require.False(t, ok)
}
