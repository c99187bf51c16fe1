package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyTag        = "tag"
	KeyNumCalls   = "num_calls"
	KeySamples    = "samples"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeySessionID  = "session_id"
	KeyCommand    = "command"
	KeyPhase      = "phase"
	KeySide       = "side"
	KeyFormat     = "format"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Tag(t string) slog.Attr           { return slog.String(KeyTag, t) }
func NumCalls(n int) slog.Attr         { return slog.Int(KeyNumCalls, n) }
func Samples(n int) slog.Attr          { return slog.Int(KeySamples, n) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func SessionID(id string) slog.Attr    { return slog.String(KeySessionID, id) }
func Command(c string) slog.Attr       { return slog.String(KeyCommand, c) }
func Phase(p string) slog.Attr         { return slog.String(KeyPhase, p) }
func Side(s string) slog.Attr          { return slog.String(KeySide, s) }
func Format(f string) slog.Attr        { return slog.String(KeyFormat, f) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
