// Package middleware provides the HTTP cross-cutting concerns wrapped
// around the forward-request handler: request id assignment, structured
// request/response logging, and panic recovery.
//
// Chain order (innermost to outermost):
//
//	handler = RecoveryMiddleware(log, LoggingMiddleware(log)(RequestIDMiddleware(handler)))
//
// Request id, authority, domain, proxy id, and session id all live under
// pkg/telemetry/logging's context keys rather than a second key space here,
// so a request's log lines, response header, and feedback telemetry
// correlate without duplication.
package middleware
