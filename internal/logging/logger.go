// Package logging builds the slog loggers used by the onboard binaries.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// redacted lists attribute keys whose values never reach the log output.
var redacted = map[string]bool{
	"auth_token":    true,
	"authorization": true,
}

// New returns a text logger on stderr. Stdout stays free for the chat
// transcript and the MCP stdio transport.
func New(level slog.Level) *slog.Logger {
	return NewTo(os.Stderr, level)
}

// NewTo is New writing to w.
func NewTo(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceAttr,
	}))
}

// NewNop returns a logger that drops everything.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// replaceAttr logs errors under "err" whatever key the caller picked, and
// masks credentials.
func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Key == "error" {
		a.Key = "err"
	}
	if redacted[a.Key] {
		a.Value = slog.StringValue("[redacted]")
	}
	return a
}
