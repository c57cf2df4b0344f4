package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "config.yaml").
			Build()

		require.Equal(t, CategoryConfig, err.Category())
		require.Equal(t, SeverityFatal, err.Severity())
		require.Equal(t, "invalid configuration", err.Message())
		file, ok := err.Context().GetString("file")
		require.True(t, ok)
		require.Equal(t, "config.yaml", file)
	})

	t.Run("Detection through wrapping", func(t *testing.T) {
		base := ConfigError("duplicate destination").Build()
		wrapped := fmt.Errorf("render pass: %w", base)

		require.True(t, IsClassified(wrapped))
		require.True(t, HasCategory(wrapped, CategoryConfig))
		require.Equal(t, SeverityFatal, GetSeverity(wrapped))
		require.True(t, base.IsFatal())
	})

	t.Run("Unclassified defaults", func(t *testing.T) {
		err := stderrors.New("plain")
		require.Equal(t, CategoryInternal, GetCategory(err))
		require.Equal(t, SeverityError, GetSeverity(err))
	})
}

func TestErrorBuilder_Wrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := WrapError(cause, CategoryFileSystem, "write failed").
		Fatal().
		WithContext("destination", "/out/a.html").
		Build()

	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "[filesystem:fatal] write failed: disk full")
}

func TestClassifiedError_WithContextCopies(t *testing.T) {
	base := ResolutionError("unresolved link").Build()
	withTarget := base.WithContext("link_target", "missing.rst")

	_, ok := base.Context().Get("link_target")
	require.False(t, ok)
	target, ok := withTarget.Context().GetString("link_target")
	require.True(t, ok)
	require.Equal(t, "missing.rst", target)
}

func TestClassifiedError_Is(t *testing.T) {
	a := RenderError("boom").Build()
	b := RenderError("boom").WithContext("k", "v").Build()
	require.ErrorIs(t, a, b)
	require.NotErrorIs(t, a, ConfigError("boom").Build())
}

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("bad input").Build(), expected: 2},
		{name: "config", err: ConfigError("bad config").Build(), expected: 7},
		{name: "resolution", err: ResolutionError("gap").Build(), expected: 9},
		{name: "filesystem", err: FileSystemError("write").Build(), expected: 11},
		{name: "internal", err: InternalError("bug").Build(), expected: 10},
		{name: "wrapped config", err: fmt.Errorf("ctx: %w", ConfigError("x").Build()), expected: 7},
		{name: "unclassified", err: stderrors.New("plain"), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, nil)
	verbose := NewCLIErrorAdapter(true, nil)
	internal := InternalError("nil pointer").Build()

	require.Equal(t, "Internal error occurred (use -v for details)", quiet.FormatError(internal))
	require.Contains(t, verbose.FormatError(internal), "nil pointer")
	require.Contains(t, quiet.FormatError(ConfigError("missing source").Build()), "missing source")
	require.Equal(t, "Error: plain", quiet.FormatError(stderrors.New("plain")))
}
