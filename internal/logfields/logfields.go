package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyPassID      = "pass_id"
	KeyDocument    = "document"
	KeyDestination = "destination"
	KeyLinkTarget  = "link_target"
	KeyFormat      = "format"
	KeySource      = "source"
	KeyOutput      = "output"
	KeyCount       = "count"
	KeyDurationMS  = "duration_ms"
	KeyPath        = "path"
	KeyURL         = "url"
	KeyMemoryMB    = "memory_mb"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func PassID(id string) slog.Attr { return slog.String(KeyPassID, id) }
func Document(file string) slog.Attr { return slog.String(KeyDocument, file) }
func Destination(p string) slog.Attr { return slog.String(KeyDestination, p) }
func LinkTarget(t string) slog.Attr { return slog.String(KeyLinkTarget, t) }
func Format(f string) slog.Attr { return slog.String(KeyFormat, f) }
func Source(dsn string) slog.Attr { return slog.String(KeySource, dsn) }
func Output(loc string) slog.Attr { return slog.String(KeyOutput, loc) }
func Count(n int) slog.Attr { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr { return slog.String(KeyURL, u) }

// MemoryMB reports a byte count in mebibytes.
func MemoryMB(bytes uint64) slog.Attr {
	return slog.Float64(KeyMemoryMB, float64(bytes)/1024/1024)
}
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
