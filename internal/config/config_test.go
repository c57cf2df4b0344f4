package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docrender/internal/foundation/errors"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, DefaultSourceDirectory, cfg.Source.Directory)
	assert.Equal(t, "/", cfg.Output.Location)
	assert.Equal(t, DefaultOutputDSN, cfg.Output.DSN)
	assert.Equal(t, "html", cfg.Render.Format)
	assert.Equal(t, "placeholder", cfg.Render.Policy)
	assert.Equal(t, 1, cfg.Render.Workers)
	assert.Equal(t, "github", cfg.Render.HighlightStyle)
	assert.False(t, cfg.Notify.Enabled())
	assert.Empty(t, cfg.Notify.Subject)
	assert.Equal(t, 300*time.Millisecond, cfg.DebounceDuration())
}

func TestParse_FullFile(t *testing.T) {
	t.Setenv("DOCRENDER_TEST_NATS", "nats://nats:4222")

	cfg, err := Parse([]byte(`
source:
  directory: manual
output:
  location: /guide
  dsn: file:///srv/www
  assets: true
render:
  format: Markdown
  policy: FAIL
  workers: 4
routes:
  - kind: reference
    match: "api/*"
    prefix: reference/
    strip_dir: api
metas:
  path: state/metas.db
events:
  path: state/events.db
metrics:
  listen: ":9090"
notify:
  nats_url: ${DOCRENDER_TEST_NATS}
watch:
  debounce: 1s
`))
	require.NoError(t, err)

	assert.Equal(t, "manual", cfg.Source.Directory)
	assert.Equal(t, "/guide", cfg.Output.Location)
	assert.True(t, cfg.Output.Assets)
	assert.Equal(t, "markdown", cfg.Render.Format)
	assert.Equal(t, "fail", cfg.Render.Policy)
	assert.Equal(t, 4, cfg.Render.Workers)
	require.Len(t, cfg.Routes, 1)
	assert.Equal(t, "reference/", cfg.Routes[0].Prefix)
	assert.Equal(t, "api", cfg.Routes[0].StripDir)
	assert.Equal(t, "state/metas.db", cfg.Metas.Path)
	assert.Equal(t, "state/events.db", cfg.Events.Path)
	assert.Equal(t, ":9090", cfg.Metrics.Listen)
	assert.Equal(t, "nats://nats:4222", cfg.Notify.NATSURL)
	assert.Equal(t, DefaultNotifySubject, cfg.Notify.Subject)
	assert.Equal(t, 2, cfg.Notify.MaxRetries)
	assert.Equal(t, "exponential", cfg.Notify.Backoff)
	assert.Equal(t, time.Second, cfg.DebounceDuration())
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"malformed yaml", "render: [unclosed"},
		{"unknown policy", "render:\n  policy: ignore\n"},
		{"too many workers", "render:\n  workers: 1000\n"},
		{"route without match", "routes:\n  - prefix: x/\n"},
		{"bad route pattern", "routes:\n  - match: \"[\"\n"},
		{"bad debounce", "watch:\n  debounce: soon\n"},
		{"repository without url", "source:\n  repository:\n    branch: main\n"},
		{"repository with absolute directory", "source:\n  directory: /etc\n  repository:\n    url: https://example.com/docs.git\n"},
		{"bad notify backoff", "notify:\n  nats_url: nats://x:4222\n  backoff: random\n"},
		{"bad notify retries", "notify:\n  nats_url: nats://x:4222\n  max_retries: -5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, errors.HasCategory(err, errors.CategoryConfig), "got %v", err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Cleanup(func() { _ = os.Unsetenv("DOCRENDER_TEST_OUT") })

	require.NoError(t, os.WriteFile(".env", []byte("DOCRENDER_TEST_OUT=/from-env\n"), 0o600))
	path := filepath.Join(dir, "docrender.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  location: ${DOCRENDER_TEST_OUT}\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from-env", cfg.Output.Location)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docrender.yaml")
	require.NoError(t, Init(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Routes, 1)
	assert.Equal(t, "style.css", cfg.Render.Stylesheet)

	err = Init(path, false)
	require.Error(t, err)
	require.NoError(t, Init(path, true))
}

func TestParse_Repository(t *testing.T) {
	t.Setenv("DOCRENDER_TEST_TOKEN", "s3cret")
	cfg, err := Parse([]byte(`
source:
  directory: manual
  repository:
    url: https://example.com/docs.git
    branch: main
    depth: 1
    username: bot
    token: ${DOCRENDER_TEST_TOKEN}
`))
	require.NoError(t, err)
	require.NotNil(t, cfg.Source.Repository)
	assert.Equal(t, "main", cfg.Source.Repository.Branch)
	assert.Equal(t, 1, cfg.Source.Repository.Depth)
	assert.Equal(t, "s3cret", cfg.Source.Repository.Token)
	assert.Equal(t, DefaultSourceWorkspace, cfg.Source.Workspace)

	plain, err := Parse([]byte("source:\n  directory: docs\n"))
	require.NoError(t, err)
	assert.Empty(t, plain.Source.Workspace)
}

func TestParse_GuidesSwitch(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)
	assert.True(t, cfg.Render.GuidesOn())

	cfg, err = Parse([]byte("render:\n  guides_enabled: false\n"))
	require.NoError(t, err)
	assert.False(t, cfg.Render.GuidesOn())
}
