package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// LogLevel is a thin enum for user friendly level configuration decoupled from slog.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
	// LogLevelDisabled suppresses all output.
	LogLevelDisabled
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	case LogLevelDisabled:
		return "DISABLED"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a configuration string to a LogLevel. The boolean is false
// for empty or unrecognized input, in which case LogLevelInfo is returned.
func ParseLevel(raw string) (LogLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug", "trace":
		return LogLevelDebug, true
	case "info":
		return LogLevelInfo, true
	case "warn", "warning":
		return LogLevelWarn, true
	case "error":
		return LogLevelError, true
	case "disabled", "off", "none":
		return LogLevelDisabled, true
	default:
		return LogLevelInfo, false
	}
}

// Logger defines the minimal logging interface for addonbridge.
// This allows users to provide their own logger implementation or use the built-in adapters.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// BridgeLogger wraps slog.Logger adding component scoping and domain helpers
// for request round trips and verb dispatch. With* methods return copies.
type BridgeLogger struct {
	logger    *slog.Logger
	level     LogLevel
	component string
	addonID   string
	attrs     []slog.Attr
}

// LoggerConfig configures construction of a BridgeLogger.
type LoggerConfig struct {
	Level     LogLevel
	Format    string // json, text or zerolog
	Output    io.Writer
	AddSource bool
	Component string
	AddonID   string
}

// DefaultLoggerConfig returns a baseline JSON info level configuration.
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{Level: LogLevelInfo, Format: "json", Output: os.Stdout}
}

// NewLogger builds a BridgeLogger from a config (or defaults if nil).
func NewLogger(cfg *LoggerConfig) *BridgeLogger {
	if cfg == nil {
		cfg = DefaultLoggerConfig()
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level), AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(cfg.Output, opts)
	} else {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}
	return &BridgeLogger{logger: slog.New(handler), level: cfg.Level, component: cfg.Component, addonID: cfg.AddonID}
}

// FromConfig builds the logger selected by cfg.Format: a zerolog adapter for
// FormatZerolog, otherwise a BridgeLogger.
func FromConfig(cfg *LoggerConfig) Logger {
	if cfg != nil && cfg.Format == FormatZerolog {
		return NewZerologLogger(cfg)
	}
	return NewLogger(cfg)
}

// NewSlogLogger creates a BridgeLogger writing to stdout.
func NewSlogLogger(level LogLevel, format string, addSource bool) *BridgeLogger {
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	if format != "" {
		cfg.Format = format
	}
	cfg.AddSource = addSource
	return NewLogger(cfg)
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	case LogLevelDisabled:
		return slog.LevelError + 4
	default:
		return slog.LevelInfo
	}
}

func (l *BridgeLogger) clone() *BridgeLogger {
	nl := *l
	nl.attrs = append([]slog.Attr(nil), l.attrs...)
	return &nl
}

// With returns a logger that attaches key/value to every entry.
func (l *BridgeLogger) With(key string, value any) *BridgeLogger {
	nl := l.clone()
	nl.attrs = append(nl.attrs, slog.Any(key, value))
	return nl
}

// WithComponent sets the logical component (transport, signal, registry, ...).
func (l *BridgeLogger) WithComponent(c string) *BridgeLogger {
	nl := l.clone()
	nl.component = c
	return nl
}

// WithAddon scopes entries to one add-on id.
func (l *BridgeLogger) WithAddon(addonID string) *BridgeLogger {
	nl := l.clone()
	nl.addonID = addonID
	return nl
}

func (l *BridgeLogger) baseAttrs() []slog.Attr {
	attrs := make([]slog.Attr, 0, len(l.attrs)+2)
	if l.component != "" {
		attrs = append(attrs, slog.String("component", l.component))
	}
	if l.addonID != "" {
		attrs = append(attrs, slog.String("addon_id", l.addonID))
	}
	return append(attrs, l.attrs...)
}

func (l *BridgeLogger) log(level slog.Level, allowed bool, msg string, args ...any) {
	if !allowed {
		return
	}
	r := slog.NewRecord(time.Now(), level, msg, 0)
	r.AddAttrs(l.baseAttrs()...)
	r.Add(args...)
	_ = l.logger.Handler().Handle(context.Background(), r)
}

// Debug logs at debug level.
func (l *BridgeLogger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, l.level <= LogLevelDebug, msg, args...)
}

// Info logs at info level.
func (l *BridgeLogger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, l.level <= LogLevelInfo, msg, args...)
}

// Warn logs at warn level.
func (l *BridgeLogger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, l.level <= LogLevelWarn, msg, args...)
}

// Error logs at error level.
func (l *BridgeLogger) Error(msg string, args ...any) {
	l.log(slog.LevelError, l.level <= LogLevelError, msg, args...)
}

// LogRoundTrip records the outcome of one request/response exchange.
func (l *BridgeLogger) LogRoundTrip(identifier string, ticks int, success bool, err error) {
	args := []any{"identifier", identifier, "ticks", ticks, "success", success}
	if err != nil {
		args = append(args, "error", err.Error())
	}
	if success {
		l.Info("Round trip completed", args...)
		return
	}
	l.Error("Round trip failed", args...)
}

// LogDispatch records the handling of one inbound bridge verb.
func (l *BridgeLogger) LogDispatch(verb, addonID string, dur time.Duration, err error) {
	args := []any{"verb", verb, "addon", addonID, "duration", dur}
	if err != nil {
		l.Warn("Dispatch rejected", append(args, "error", err.Error())...)
		return
	}
	l.Debug("Dispatch completed", args...)
}

// NoOpLogger discards all log messages. Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}

// OrNoOp returns l, or a NoOpLogger when l is nil.
func OrNoOp(l Logger) Logger {
	if l == nil {
		return NoOpLogger{}
	}
	return l
}
