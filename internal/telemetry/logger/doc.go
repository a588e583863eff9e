// Package logger provides structured logging for the client and its
// demonstration CLI.
//
// It wraps the standard library log/slog for structured JSON/text logging
// with automatic redaction of connection credentials:
//
//   - logger.go: slog-backed Logger implementation and global defaults
//   - context.go: context-aware logging with request/trace IDs
//   - redact.go: sensitive field redaction
package logger
