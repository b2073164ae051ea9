package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"
)

// New returns the service logger. An explicit level wins over the
// environment default (debug for local/dev, info elsewhere).
func New(appEnv, level string) *slog.Logger {
	lvl := slog.LevelInfo
	if appEnv == "local" || appEnv == "dev" {
		lvl = slog.LevelDebug
	}
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return slog.New(h)
}

type ctxKey struct{}

// With stores a logger in context.
func With(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From gets a logger from context, falling back to slog.Default().
func From(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}

// Transcript controls whether caller speech may appear in logs.
type Transcript struct {
	Enabled  bool
	MaxChars int
}

// Attr returns a log attribute carrying text, or a redacted marker when
// transcript logging is off. Text longer than MaxChars runes is cut.
func (t Transcript) Attr(key, text string) slog.Attr {
	if !t.Enabled {
		return slog.Int(key+"_len", utf8.RuneCountInString(text))
	}
	max := t.MaxChars
	if max <= 0 {
		max = 500
	}
	if utf8.RuneCountInString(text) > max {
		r := []rune(text)
		text = string(r[:max]) + "..."
	}
	return slog.String(key, text)
}
