// Package logging provides a minimal logging interface and adapters for addonbridge.
//
// The Logger interface defines the leveled methods (Debug, Info, Warn, Error)
// the transport, dispatch signal and bridge registry use for observability.
// This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping a *slog.Logger
//   - BridgeLogger, a configurable slog logger with contextual helpers
//   - ZerologAdapter for hosts that already log through zerolog
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	rt, err := addonbridge.New(h, func(o *addonbridge.Options) { o.Logger = logger })
//
// Arguments after the message are alternating key/value pairs, as with slog.
package logging
