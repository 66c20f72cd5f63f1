// Package logger builds the process logger on log/slog.
//
//   - logger.go: handler setup and the shared level
//   - context.go: request IDs and loggers carried on a context
//   - redact.go: masking of session tokens, key secrets and credential fields
//
// The level is held in a slog.LevelVar so api-server can change it when its
// configuration file is edited.
package logger
