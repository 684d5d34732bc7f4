package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// Format is the output format (json, text, console).
	Format string
	// Output defaults to os.Stderr.
	Output io.Writer
	// AddSource adds source file information to log entries.
	AddSource bool
}

// level is shared by every handler New builds.
var level = new(slog.LevelVar)

var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// New builds a slog logger whose attributes pass through payload
// truncation and secret redaction. An empty level means info.
func New(cfg Config) (*slog.Logger, error) {
	if cfg.Level != "" && !ValidLevel(cfg.Level) {
		return nil, fmt.Errorf("unknown log level %q", cfg.Level)
	}
	if !ValidFormat(cfg.Format) {
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	SetLevel(cfg.Level)

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return sanitizeAttr(a)
		},
	}

	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text", "console":
		h = slog.NewTextHandler(out, opts)
	default:
		h = slog.NewJSONHandler(out, opts)
	}
	return slog.New(h), nil
}

// SetLevel changes the level of every logger built by New. Unknown names
// fall back to info.
func SetLevel(name string) {
	l, ok := levelNames[strings.ToLower(name)]
	if !ok {
		l = slog.LevelInfo
	}
	level.Set(l)
}

// GetLevel returns the current level name.
func GetLevel() string {
	switch level.Level() {
	case slog.LevelDebug:
		return "debug"
	case slog.LevelWarn:
		return "warn"
	case slog.LevelError:
		return "error"
	}
	return "info"
}

// ValidLevel reports whether name is a known log level.
func ValidLevel(name string) bool {
	_, ok := levelNames[strings.ToLower(name)]
	return ok
}

// ValidFormat reports whether format is a known output format.
// The empty string selects json.
func ValidFormat(format string) bool {
	switch strings.ToLower(format) {
	case "", "json", "text", "console":
		return true
	}
	return false
}
