package middleware

// contextKey is a custom type for context keys private to this package, to
// avoid collisions with pkg/telemetry/logging's request-scoped keys.
type contextKey string

// StartTimeKey stores the request start time for latency calculation.
// Request id, authority, domain, proxy id, and session id all live in
// pkg/telemetry/logging instead, since they are logged as well as read
// here.
const StartTimeKey contextKey = "start_time"
