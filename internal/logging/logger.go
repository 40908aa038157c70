// Package logging provides the process-wide structured logging sink used
// across comfygit's core. It mirrors compozy's pkg/logger: a small Logger
// interface over charmbracelet/log, carried through context rather than a
// package-level global.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"

	charmlog "github.com/charmbracelet/log"
)

// LogLevel is a string enum so it round-trips cleanly through config files
// and environment variables.
type LogLevel string

const (
	DebugLevel    LogLevel = "debug"
	InfoLevel     LogLevel = "info"
	WarnLevel     LogLevel = "warn"
	ErrorLevel    LogLevel = "error"
	DisabledLevel LogLevel = "disabled"
)

// ToCharmlogLevel converts to the charmbracelet/log level space. Unknown
// levels default to InfoLevel.
func (l LogLevel) ToCharmlogLevel() charmlog.Level {
	switch l {
	case DebugLevel:
		return charmlog.DebugLevel
	case InfoLevel:
		return charmlog.InfoLevel
	case WarnLevel:
		return charmlog.WarnLevel
	case ErrorLevel:
		return charmlog.ErrorLevel
	case DisabledLevel:
		return charmlog.Level(1000)
	default:
		return charmlog.InfoLevel
	}
}

// Logger is the interface every comfygit package logs through.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
	With(keyvals ...any) Logger
}

// Config controls how NewLogger builds its sink.
type Config struct {
	Level      LogLevel
	Output     io.Writer
	JSON       bool
	AddSource  bool
	TimeFormat string
}

// DefaultConfig is human-readable, info-level, writing to stdout.
func DefaultConfig() *Config {
	return &Config{
		Level:      InfoLevel,
		Output:     os.Stdout,
		JSON:       false,
		AddSource:  false,
		TimeFormat: "15:04:05",
	}
}

// TestConfig discards all output; used as the fallback when running under
// `go test` and no config was supplied.
func TestConfig() *Config {
	return &Config{
		Level:      DisabledLevel,
		Output:     io.Discard,
		JSON:       false,
		AddSource:  false,
		TimeFormat: "15:04:05",
	}
}

// IsTestEnvironment reports whether the process is running under `go test`.
func IsTestEnvironment() bool {
	if testing.Testing() {
		return true
	}
	return strings.HasSuffix(os.Args[0], ".test") || strings.Contains(os.Args[0], "/_test/")
}

type charmLogger struct {
	l *charmlog.Logger
}

// NewLogger builds a Logger from cfg. A nil cfg uses TestConfig() under
// `go test` and DefaultConfig() otherwise.
func NewLogger(cfg *Config) Logger {
	if cfg == nil {
		if IsTestEnvironment() {
			cfg = TestConfig()
		} else {
			cfg = DefaultConfig()
		}
	}
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	l := charmlog.NewWithOptions(out, charmlog.Options{
		Level:           cfg.Level.ToCharmlogLevel(),
		ReportTimestamp: true,
		ReportCaller:    cfg.AddSource,
		TimeFormat:      cfg.TimeFormat,
		Formatter:       formatterFor(cfg.JSON),
	})
	return &charmLogger{l: l}
}

func formatterFor(isJSON bool) charmlog.Formatter {
	if isJSON {
		return charmlog.JSONFormatter
	}
	return charmlog.TextFormatter
}

func (c *charmLogger) Debug(msg string, keyvals ...any) { c.l.Debug(msg, keyvals...) }
func (c *charmLogger) Info(msg string, keyvals ...any)  { c.l.Info(msg, keyvals...) }
func (c *charmLogger) Warn(msg string, keyvals ...any)  { c.l.Warn(msg, keyvals...) }
func (c *charmLogger) Error(msg string, keyvals ...any) { c.l.Error(msg, keyvals...) }

func (c *charmLogger) With(keyvals ...any) Logger {
	return &charmLogger{l: c.l.With(keyvals...)}
}

type ctxKey struct{}

// LoggerCtxKey is the context key under which a Logger is stored. Exported
// so callers (and tests) can stash arbitrary values for fallback testing.
var LoggerCtxKey = ctxKey{}

var defaultLogger = NewLogger(nil)

// ContextWithLogger returns a child context carrying logger.
func ContextWithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, LoggerCtxKey, logger)
}

// FromContext retrieves the Logger stashed by ContextWithLogger, falling
// back to a package-default logger if ctx carries none, a nil one, or a
// value of the wrong type.
func FromContext(ctx context.Context) Logger {
	if ctx == nil {
		return defaultLogger
	}
	v := ctx.Value(LoggerCtxKey)
	if v == nil {
		return defaultLogger
	}
	logger, ok := v.(Logger)
	if !ok || logger == nil {
		return defaultLogger
	}
	return logger
}
