package metas

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func sample() *Memory {
	return NewMemory(
		Entry{File: "intro.rst", Title: "Intro", Anchors: []string{"intro", "setup"}, Labels: []string{"getting-started"}},
		Entry{File: "guide/usage.rst", Title: "Usage", Anchors: []string{"usage", "setup"}},
		Entry{File: "b.rst", Title: "B", Anchors: []string{"b-only"}},
	)
}

func TestMemory_GetAndLookup(t *testing.T) {
	m := sample()

	e, ok := m.Get("intro.rst")
	require.True(t, ok)
	require.Equal(t, "Intro", e.Title)

	_, ok = m.Get("intro")
	require.False(t, ok)

	e, ok = m.Lookup("intro")
	require.True(t, ok)
	require.Equal(t, "intro.rst", e.File)

	e, ok = m.Lookup("./guide/usage.rst")
	require.True(t, ok)
	require.Equal(t, "guide/usage.rst", e.File)

	_, ok = m.Lookup("intro.md")
	require.False(t, ok)
}

func TestMemory_LookupAmbiguousWithoutExtension(t *testing.T) {
	m := NewMemory(Entry{File: "a.rst"}, Entry{File: "a.md"})
	_, ok := m.Lookup("a")
	require.False(t, ok)
	_, ok = m.Lookup("a.md")
	require.True(t, ok)
}

func TestMemory_FindLabel(t *testing.T) {
	m := sample()

	e, ok := m.FindLabel("getting-started")
	require.True(t, ok)
	require.Equal(t, "intro.rst", e.File)

	e, ok = m.FindLabel("b-only")
	require.True(t, ok)
	require.Equal(t, "b.rst", e.File)

	// heading anchor defined by two documents is ambiguous
	_, ok = m.FindLabel("setup")
	require.False(t, ok)

	_, ok = m.FindLabel("nope")
	require.False(t, ok)
}

func TestMemory_PutCopiesSlices(t *testing.T) {
	anchors := []string{"x"}
	m := NewMemory(Entry{File: "a.rst", Anchors: anchors})
	anchors[0] = "changed"
	e, _ := m.Get("a.rst")
	require.True(t, e.HasAnchor("x"))
	require.False(t, e.HasAnchor("changed"))
}

func TestMemory_Files(t *testing.T) {
	require.Equal(t, []string{"b.rst", "guide/usage.rst", "intro.rst"}, sample().Files())
	require.Equal(t, 3, sample().Len())
}

func TestSQLite_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "metas.db")

	require.NoError(t, Save(ctx, dbPath, sample()))
	loaded, err := Load(ctx, dbPath)
	require.NoError(t, err)

	require.Equal(t, sample().Files(), loaded.Files())
	e, ok := loaded.Get("intro.rst")
	require.True(t, ok)
	require.Equal(t, "Intro", e.Title)
	require.Equal(t, []string{"intro", "setup"}, e.Anchors)
	require.Equal(t, []string{"getting-started"}, e.Labels)

	// saving again replaces content
	require.NoError(t, Save(ctx, dbPath, NewMemory(Entry{File: "only.rst", Title: "Only"})))
	loaded, err = Load(ctx, dbPath)
	require.NoError(t, err)
	require.Equal(t, []string{"only.rst"}, loaded.Files())
}
