// Package logging builds the slog.Logger shared by the server and tools.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Options picks the output format and minimum level.
type Options struct {
	Level     string // debug, info, warn, error
	Format    string // json, text, pretty
	AddSource bool
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// ParseFormat normalises a format name to json, text or pretty.
func ParseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "", "json":
		return "json", nil
	case "text", "pretty":
		return f, nil
	}
	return "", fmt.Errorf("unknown log format %q", s)
}

// New returns a logger writing to w.
func New(w io.Writer, opts Options) (*slog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	ho := &slog.HandlerOptions{Level: level, AddSource: opts.AddSource}

	format, err := ParseFormat(opts.Format)
	if err != nil {
		return nil, err
	}

	var h slog.Handler
	switch format {
	case "text":
		h = slog.NewTextHandler(w, ho)
	case "pretty":
		h = NewPrettyJSONHandler(w, ho)
	default:
		h = slog.NewJSONHandler(w, ho)
	}
	return slog.New(h), nil
}
