package logging

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// ZerologAdapter implements Logger on top of a zerolog.Logger. Key/value
// arguments become event fields; a dangling key is logged under "!BADKEY".
type ZerologAdapter struct {
	logger zerolog.Logger
}

// FormatZerolog selects the zerolog backend in LoggerConfig.Format.
const FormatZerolog = "zerolog"

// NewZerologAdapter wraps logger.
func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

// NewZerologLogger builds a timestamped zerolog JSON logger from cfg.
func NewZerologLogger(cfg *LoggerConfig) *ZerologAdapter {
	if cfg == nil {
		cfg = DefaultLoggerConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	zctx := zerolog.New(out).Level(zerologLevel(cfg.Level)).With().Timestamp()
	if cfg.Component != "" {
		zctx = zctx.Str("component", cfg.Component)
	}
	if cfg.AddonID != "" {
		zctx = zctx.Str("addon_id", cfg.AddonID)
	}
	return NewZerologAdapter(zctx.Logger())
}

func zerologLevel(l LogLevel) zerolog.Level {
	switch l {
	case LogLevelDebug:
		return zerolog.DebugLevel
	case LogLevelWarn:
		return zerolog.WarnLevel
	case LogLevelError:
		return zerolog.ErrorLevel
	case LogLevelDisabled:
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// WithComponent returns a copy tagging every entry with component c.
func (z *ZerologAdapter) WithComponent(c string) *ZerologAdapter {
	return NewZerologAdapter(z.logger.With().Str("component", c).Logger())
}

// Debug logs a debug message.
func (z *ZerologAdapter) Debug(msg string, args ...any) { z.emit(z.logger.Debug(), msg, args) }

// Info logs an informational message.
func (z *ZerologAdapter) Info(msg string, args ...any) { z.emit(z.logger.Info(), msg, args) }

// Warn logs a warning message.
func (z *ZerologAdapter) Warn(msg string, args ...any) { z.emit(z.logger.Warn(), msg, args) }

// Error logs an error message.
func (z *ZerologAdapter) Error(msg string, args ...any) { z.emit(z.logger.Error(), msg, args) }

func (z *ZerologAdapter) emit(ev *zerolog.Event, msg string, args []any) {
	if ev == nil {
		return
	}
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			ev = ev.Interface("!BADKEY", args[i])
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		if err, ok := args[i+1].(error); ok {
			ev = ev.AnErr(key, err)
			continue
		}
		ev = ev.Interface(key, args[i+1])
	}
	ev.Msg(msg)
}
