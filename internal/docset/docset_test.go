package docset

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docrender/internal/foundation/errors"
)

func TestNew_RejectsDuplicateFiles(t *testing.T) {
	_, err := New(KindGuide, Source{Paths: []string{"docs"}}, "/out",
		NewDocument("a.rst", nil, nil, nil),
		NewDocument("a.rst", nil, nil, nil),
	)
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestNew_RejectsEmptyFile(t *testing.T) {
	_, err := New(KindGuide, Source{}, "/out", NewDocument("", nil, nil, nil))
	require.Error(t, err)
}

func TestDocument_TablesAreCopies(t *testing.T) {
	links := map[string]string{"php": "https://php.net"}
	doc := NewDocument("a.rst", nil, links, map[string]string{"v": "1"})

	links["php"] = "changed"
	require.Equal(t, "https://php.net", doc.Links()["php"])

	got := doc.Variables()
	got["v"] = "2"
	require.Equal(t, "1", doc.Variables()["v"])
}

func TestDocument_NilTablesAreEmpty(t *testing.T) {
	doc := NewDocument("a.rst", nil, nil, nil)
	require.NotNil(t, doc.Links())
	require.Empty(t, doc.Links())
	require.Empty(t, doc.Variables())
}

func TestSet_OrderAndLookup(t *testing.T) {
	set, err := New(KindGuide, Source{Paths: []string{"docs"}}, "/out",
		NewDocument("b.rst", nil, nil, nil),
		NewDocument("a.rst", nil, nil, nil),
	)
	require.NoError(t, err)
	require.Equal(t, 2, set.Len())
	docs := set.Documents()
	require.Equal(t, "b.rst", docs[0].File())
	require.Equal(t, "a.rst", docs[1].File())

	got, ok := set.Lookup("a.rst")
	require.True(t, ok)
	require.Equal(t, "a.rst", got.File())
	_, ok = set.Lookup("missing.rst")
	require.False(t, ok)
}

func TestSet_RequireGuide(t *testing.T) {
	guide := &Set{Kind: KindGuide}
	require.NoError(t, guide.RequireGuide())

	api := &Set{Kind: KindAPI}
	err := api.RequireGuide()
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))

	var nilSet *Set
	require.Error(t, nilSet.RequireGuide())
}

func TestSource_Root(t *testing.T) {
	require.Equal(t, "", Source{}.Root())
	require.Equal(t, "docs", Source{Paths: []string{"docs", "more"}}.Root())
}
