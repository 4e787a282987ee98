// Package logging provides structured logging for Topic Lab.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the application.
//
// # Features
//
//   - JSON output for machine consumption, text for terminals
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Thread-safe for concurrent use
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "text"     # json, text
//	  output: "stderr"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("starting api", "port", 8484)
//	logger.Error("connect failed", "error", err)
//
// # Security
//
// Never log broker passwords, API tokens or the JWT secret. Message
// payloads are logged at debug level only.
package logging
