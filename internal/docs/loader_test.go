package docs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docrender/internal/docset"
	derrors "git.home.luguber.info/inful/docrender/internal/docs/errors"
	"git.home.luguber.info/inful/docrender/internal/foundation/errors"
	"git.home.luguber.info/inful/docrender/internal/storage"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for p, content := range files {
		full := filepath.Join(root, filepath.FromSlash(p))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o600))
	}
	return root
}

func TestDiscover(t *testing.T) {
	root := writeTree(t, map[string]string{
		"index.md":           "# Index\n",
		"guide/setup.md":     "# Setup\n",
		"guide/img/shot.png": "png",
		"CHANGELOG.md":       "# Changes\n",
		"notes.txt":          "ignored",
		".hidden/secret.md":  "# Secret\n",
		"guide/.draft.md":    "# Draft\n",
		"guide/CHANGELOG.md": "# Kept below the root\n",
	})

	files, err := Discover(root)
	require.NoError(t, err)

	var rel []string
	for _, f := range files {
		rel = append(rel, f.RelativePath)
	}
	require.Equal(t, []string{"guide/CHANGELOG.md", "guide/img/shot.png", "guide/setup.md", "index.md"}, rel)
	require.True(t, files[1].IsAsset)
	require.Equal(t, "guide", files[2].Section)
	require.Equal(t, "setup", files[2].Name)
}

func TestDiscoverMissingRoot(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, derrors.ErrDocsPathNotFound)
}

func TestLoad(t *testing.T) {
	root := writeTree(t, map[string]string{
		"intro.md": "---\ntitle: Introduction\nlinks:\n  home: https://example.com\nvariables:\n  product: Docrender\nlabels: [start]\n---\n# Intro\n\n## Install\n",
		"guide.md": "# The Guide\n\nBody.\n",
		"logo.png": "png",
	})

	res, err := Load(context.Background(), root, "/out")
	require.NoError(t, err)
	require.Equal(t, docset.KindGuide, res.Set.Kind)
	require.Equal(t, 2, res.Set.Len())
	require.Len(t, res.Assets, 1)
	require.NotEmpty(t, res.Hash)

	intro, ok := res.Set.Lookup("intro.md")
	require.True(t, ok)
	require.Equal(t, "Introduction", intro.Title())
	require.Equal(t, map[string]string{"home": "https://example.com"}, intro.Links())
	require.Equal(t, map[string]string{"product": "Docrender"}, intro.Variables())

	guide, _ := res.Set.Lookup("guide.md")
	require.Equal(t, "The Guide", guide.Title())

	entry, ok := res.Metas.Get("intro.md")
	require.True(t, ok)
	require.Equal(t, []string{"intro", "install"}, entry.Anchors)
	require.Equal(t, []string{"start"}, entry.Labels)

	found, ok := res.Metas.FindLabel("start")
	require.True(t, ok)
	require.Equal(t, "intro.md", found.File)
}

func TestLoadInvalidFrontmatter(t *testing.T) {
	root := writeTree(t, map[string]string{"bad.md": "---\ntitle: [unclosed\n---\nBody\n"})

	_, err := Load(context.Background(), root, "/out")
	require.ErrorIs(t, err, derrors.ErrInvalidFrontmatter)
	require.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestLoadWithoutDocuments(t *testing.T) {
	root := writeTree(t, map[string]string{"only.png": "png"})

	_, err := Load(context.Background(), root, "/out")
	require.ErrorIs(t, err, derrors.ErrNoDocsFound)
}

func TestComputeDocsHashChangesWithContent(t *testing.T) {
	a := []DocFile{{RelativePath: "a.md", Content: []byte("one")}, {RelativePath: "b.md", Content: []byte("two")}}
	reordered := []DocFile{a[1], a[0]}
	changed := []DocFile{{RelativePath: "a.md", Content: []byte("uno")}, a[1]}

	h1, err := ComputeDocsHash(a)
	require.NoError(t, err)
	h2, err := ComputeDocsHash(reordered)
	require.NoError(t, err)
	h3, err := ComputeDocsHash(changed)
	require.NoError(t, err)

	require.Equal(t, h1, h2)
	require.NotEqual(t, h1, h3)
}

func TestCopyAssets(t *testing.T) {
	out := storage.NewMemFS()
	assets := []DocFile{{RelativePath: "img/a.png", Content: []byte("png")}}

	require.NoError(t, CopyAssets(context.Background(), assets, out, "/out"))
	data, err := out.ReadFile(context.Background(), "/out/img/a.png")
	require.NoError(t, err)
	require.Equal(t, "png", string(data))
}
