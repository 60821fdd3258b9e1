// Package logging builds the slog loggers used across reel.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects where and how logs are written.
type Options struct {
	Level  slog.Level
	Format string // "text" (default) or "json"
	// File, when set, receives the logs through a rotating writer instead
	// of Stderr.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// New creates a text logger on Stderr, leaving Stdout to dialogue output.
func New(level slog.Level) *slog.Logger {
	return NewWith(os.Stderr, "text", level)
}

// NewJSON creates a JSON logger on Stderr.
func NewJSON(level slog.Level) *slog.Logger {
	return NewWith(os.Stderr, "json", level)
}

// NewWith creates a logger writing to w in the given format.
// It standardizes common keys (e.g., "error" -> "err").
func NewWith(w io.Writer, format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// FromOptions builds a logger. The returned closer flushes the rotating
// file, if any.
func FromOptions(o Options) (*slog.Logger, io.Closer) {
	if o.File == "" {
		return NewWith(os.Stderr, o.Format, o.Level), nopCloser{}
	}
	lj := &lumberjack.Logger{
		Filename:   o.File,
		MaxSize:    o.MaxSizeMB,
		MaxBackups: o.MaxBackups,
	}
	return NewWith(lj, o.Format, o.Level), lj
}

// ParseLevel maps debug, info, warn and error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return l, nil
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
