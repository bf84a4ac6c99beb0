// Package logging provides structured logging with credential redaction.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - Structured logging in JSON or text formats
//   - Automatic redaction of upstream proxy credentials and other PII
//   - Context-aware logging with request id, authority, domain, proxy id,
//     and session id (spec §7)
//   - Configurable log levels (debug, info, warn, error)
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:     "info",
//	    Format:    "json",
//	    RedactPII: true,
//	})
//
//	logger.Info("dispatch complete",
//	    "proxy_id", 7,
//	    "status", 200,
//	)
//
//	ctx := logging.WithRequestID(ctx, "req-123")
//	ctxLogger := logger.WithContext(ctx)
//	ctxLogger.Info("forwarding request") // includes request_id automatically
package logging
