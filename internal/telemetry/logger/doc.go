// Package logger provides structured logging for memkv.
//
// This package wraps log/slog:
//
//   - logger.go: Handler construction and the shared level
//   - context.go: Loggers and run IDs carried in a context
//   - redact.go: Payload truncation and secret redaction
//
// Client payloads can be arbitrarily large, so attributes that carry them
// (value, args, line, payload, reply) are truncated before they reach the
// handler. Attributes whose key names a credential are replaced outright.
//
// The level is held in a shared slog.LevelVar, so SetLevel takes effect on
// every logger created by New, including ones already handed out.
package logger
