package urlgen_test

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docrender/internal/docset"
	"git.home.luguber.info/inful/docrender/internal/foundation/errors"
	"git.home.luguber.info/inful/docrender/internal/metas"
	"git.home.luguber.info/inful/docrender/internal/rendercontext"
	"git.home.luguber.info/inful/docrender/internal/router"
	"git.home.luguber.info/inful/docrender/internal/storage"
	"git.home.luguber.info/inful/docrender/internal/urlgen"
)

func fixture(t *testing.T, policy urlgen.Policy, rules ...router.Rule) *rendercontext.Context {
	t.Helper()
	r, err := router.New(".html", rules...)
	require.NoError(t, err)
	store := metas.NewMemory(
		metas.Entry{File: "a.rst", Anchors: []string{"intro"}},
		metas.Entry{File: "b.rst", Anchors: []string{"usage"}, Labels: []string{"b-label"}},
		metas.Entry{File: "guide/c.rst", Anchors: []string{"setup", "usage"}},
		metas.Entry{File: "guide/d.rst"},
	)
	src := storage.NewMemFS().Add("/src/guide/img/shot.png", []byte("png"))
	return rendercontext.New(rendercontext.Options{
		OutputRoot: "/out",
		Format:     "html",
		Origin:     src,
		Metas:      store,
		Generator:  urlgen.New(r, policy),
	})
}

func bind(rc *rendercontext.Context, file string, links map[string]string) {
	rc.Bind(docset.NewDocument(file, nil, links, nil), "/src", "/out/"+file)
}

func TestResolveMutualLinks(t *testing.T) {
	ctx := context.Background()
	rc := fixture(t, urlgen.PolicyPlaceholder)

	bind(rc, "a.rst", nil)
	toB, err := rc.Resolve(ctx, "b.rst")
	require.NoError(t, err)
	require.Equal(t, "b.html", toB)

	bind(rc, "b.rst", nil)
	toA, err := rc.Resolve(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, "a.html", toA)
}

func TestResolveOrder(t *testing.T) {
	ctx := context.Background()
	rc := fixture(t, urlgen.PolicyPlaceholder)
	bind(rc, "guide/c.rst", map[string]string{
		"b.rst":  "https://override.example/b",
		"vendor": "https://vendor.example",
	})

	tests := []struct {
		target string
		want   string
	}{
		{"https://example.com/x", "https://example.com/x"},
		{"mailto:docs@example.com", "mailto:docs@example.com"},
		{"/static/site.css", "/static/site.css"},
		{"", ""},
		{"vendor", "https://vendor.example"},
		{"b.rst", "https://override.example/b"},
		{"#setup", "#setup"},
		{"d.rst", "d.html"},
		{"d", "d.html"},
		{"a.rst#intro", "../a.html#intro"},
		{"guide/d.rst", "d.html"},
		{"b-label", "../b.html"},
		{"intro", "../a.html#intro"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			got, err := rc.Resolve(ctx, tt.target)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
	require.Empty(t, rc.Gaps())
}

func TestResolveGapPlaceholder(t *testing.T) {
	ctx := context.Background()
	rc := fixture(t, urlgen.PolicyPlaceholder)
	bind(rc, "a.rst", nil)

	for _, target := range []string{"nowhere", "#missing", "b.rst#missing", "usage"} {
		got, err := rc.Resolve(ctx, target)
		require.NoError(t, err)
		require.Equal(t, urlgen.UnresolvedPrefix+target, got)
	}
	require.Equal(t, []string{"nowhere", "#missing", "b.rst#missing", "usage"}, rc.Gaps())
}

func TestResolveGapFail(t *testing.T) {
	rc := fixture(t, urlgen.PolicyFail)
	bind(rc, "a.rst", nil)

	_, err := rc.Resolve(context.Background(), "nowhere")
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryResolution))

	var gap *urlgen.ResolutionError
	require.True(t, stderrors.As(err, &gap))
	require.Equal(t, "nowhere", gap.Target)
	require.Equal(t, "a.rst", gap.Document)
	require.Equal(t, []string{"nowhere"}, rc.Gaps())
}

func TestResolveAcrossRoutePrefixes(t *testing.T) {
	rc := fixture(t, urlgen.PolicyPlaceholder, router.Rule{Match: "guide/*", Prefix: "manual", StripDir: "guide"})
	bind(rc, "a.rst", nil)

	got, err := rc.Resolve(context.Background(), "guide/c.rst#usage")
	require.NoError(t, err)
	require.Equal(t, "manual/c.html#usage", got)
}

func TestAssetURL(t *testing.T) {
	ctx := context.Background()
	rc := fixture(t, urlgen.PolicyPlaceholder, router.Rule{Match: "guide/*", Prefix: "manual", StripDir: "guide"})
	rc.Bind(docset.NewDocument("guide/c.rst", nil, nil, nil), "/src/guide", "/out/manual/c.html")

	got, err := rc.AssetURL(ctx, "img/shot.png")
	require.NoError(t, err)
	require.Equal(t, "../guide/img/shot.png", got)

	got, err = rc.AssetURL(ctx, "https://cdn.example/x.png")
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example/x.png", got)

	got, err = rc.AssetURL(ctx, "../../outside.png")
	require.NoError(t, err)
	require.Equal(t, "../../outside.png", got)
}

func TestRelativeURL(t *testing.T) {
	tests := []struct {
		from, to, want string
	}{
		{"a.html", "b.html", "b.html"},
		{"a.html", "a.html", "a.html"},
		{"guide/a.html", "b.html", "../b.html"},
		{"b.html", "guide/a.html", "guide/a.html"},
		{"x/y/a.html", "x/z/b.html", "../z/b.html"},
		{"x/a.html", "x/y/b.html", "y/b.html"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, urlgen.RelativeURL(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := urlgen.ParsePolicy("")
	require.NoError(t, err)
	require.Equal(t, urlgen.PolicyPlaceholder, p)

	p, err = urlgen.ParsePolicy("FAIL")
	require.NoError(t, err)
	require.Equal(t, urlgen.PolicyFail, p)

	_, err = urlgen.ParsePolicy("ignore")
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
}
