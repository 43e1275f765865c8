package ptyharness

import (
	"io"
	"log/slog"
	"strings"
	"testing"
)

// parseLevel maps the PTYHARNESS_LOG spellings to slog levels. Unknown
// values disable logging below warn.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// NewLogger returns a text logger at the given level writing to w.
func NewLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(level)}))
}

// tbWriter routes log lines into the test log so they show up under
// go test -v next to the test that produced them.
type tbWriter struct {
	t testing.TB
}

func (w tbWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

func testLogger(t testing.TB, level string) *slog.Logger {
	return NewLogger(tbWriter{t: t}, level)
}
