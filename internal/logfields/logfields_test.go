package logfields

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"PassID", KeyPassID, "p-1", PassID("p-1")},
		{"Document", KeyDocument, "intro.rst", Document("intro.rst")},
		{"Destination", KeyDestination, "/out/intro.html", Destination("/out/intro.html")},
		{"LinkTarget", KeyLinkTarget, "b.rst", LinkTarget("b.rst")},
		{"Format", KeyFormat, "html", Format("html")},
		{"Source", KeySource, "file:///docs", Source("file:///docs")},
		{"Output", KeyOutput, "/out", Output("/out")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"URL", KeyURL, "https://example.com/docs.git", URL("https://example.com/docs.git")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.attrKey, tc.attr.Key)
			require.Equal(t, tc.attrVal, tc.attr.Value.String())
		})
	}
}

func TestNumericAndErrorHelpers(t *testing.T) {
	require.Equal(t, int64(3), Count(3).Value.Int64())
	require.InDelta(t, 1.5, DurationMS(1.5).Value.Float64(), 0.0001)
	require.Equal(t, KeyMemoryMB, MemoryMB(3<<20).Key)
	require.InDelta(t, 3.0, MemoryMB(3<<20).Value.Float64(), 0.0001)
	require.Equal(t, "", Error(nil).Value.String())
	require.Equal(t, "boom", Error(errors.New("boom")).Value.String())
}
