package logging

import "context"

// Context keys for common log fields, adapted from the teacher's
// request-scoped logging fields to the pipeline's own vocabulary (request
// id, the CONNECT authority, the resolved domain, the selected upstream
// proxy, and the session id pinning them together — spec §4.E, §7).
type contextKey string

const (
	// RequestIDKey is the context key for the per-request request id
	// (spec §4.E.1, §7 "every log line ... request_id").
	RequestIDKey contextKey = "request_id"

	// AuthorityKey is the context key for the CONNECT authority (host:port)
	// a MITM'd connection was established for.
	AuthorityKey contextKey = "authority"

	// DomainKey is the context key for the forward request's target domain.
	DomainKey contextKey = "domain"

	// ProxyIDKey is the context key for the selected upstream proxy's id.
	ProxyIDKey contextKey = "proxy_id"

	// SessionIDKey is the context key for the resolved `_lcst_sess` value.
	SessionIDKey contextKey = "session_id"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(RequestIDKey).(string); ok {
		return v
	}
	return ""
}

// WithAuthority adds the CONNECT authority to the context.
func WithAuthority(ctx context.Context, authority string) context.Context {
	return context.WithValue(ctx, AuthorityKey, authority)
}

// GetAuthority retrieves the CONNECT authority from the context.
func GetAuthority(ctx context.Context) string {
	if v, ok := ctx.Value(AuthorityKey).(string); ok {
		return v
	}
	return ""
}

// WithDomain adds the forward request's target domain to the context.
func WithDomain(ctx context.Context, domain string) context.Context {
	return context.WithValue(ctx, DomainKey, domain)
}

// GetDomain retrieves the target domain from the context.
func GetDomain(ctx context.Context) string {
	if v, ok := ctx.Value(DomainKey).(string); ok {
		return v
	}
	return ""
}

// WithProxyID adds the selected upstream proxy's id to the context.
func WithProxyID(ctx context.Context, proxyID string) context.Context {
	return context.WithValue(ctx, ProxyIDKey, proxyID)
}

// GetProxyID retrieves the selected upstream proxy's id from the context.
func GetProxyID(ctx context.Context) string {
	if v, ok := ctx.Value(ProxyIDKey).(string); ok {
		return v
	}
	return ""
}

// WithSessionID adds the resolved session id to the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDKey, sessionID)
}

// GetSessionID retrieves the resolved session id from the context.
func GetSessionID(ctx context.Context) string {
	if v, ok := ctx.Value(SessionIDKey).(string); ok {
		return v
	}
	return ""
}

// extractContextFields extracts common fields from context for logging,
// returning a slice of key-value pairs suitable for logger.With().
func extractContextFields(ctx context.Context) []any {
	var fields []any

	if v := GetRequestID(ctx); v != "" {
		fields = append(fields, "request_id", v)
	}
	if v := GetAuthority(ctx); v != "" {
		fields = append(fields, "authority", v)
	}
	if v := GetDomain(ctx); v != "" {
		fields = append(fields, "domain", v)
	}
	if v := GetProxyID(ctx); v != "" {
		fields = append(fields, "proxy_id", v)
	}
	if v := GetSessionID(ctx); v != "" {
		fields = append(fields, "session_id", v)
	}

	return fields
}

// ContextLogger is a logger that automatically includes context fields.
type ContextLogger struct {
	logger *Logger
	ctx    context.Context
}

// NewContextLogger creates a logger that automatically includes context
// fields.
func NewContextLogger(logger *Logger, ctx context.Context) *ContextLogger {
	return &ContextLogger{logger: logger.WithContext(ctx), ctx: ctx}
}

// Debug logs a debug message with context fields.
func (cl *ContextLogger) Debug(msg string, args ...any) { cl.logger.DebugContext(cl.ctx, msg, args...) }

// Info logs an info message with context fields.
func (cl *ContextLogger) Info(msg string, args ...any) { cl.logger.InfoContext(cl.ctx, msg, args...) }

// Warn logs a warning message with context fields.
func (cl *ContextLogger) Warn(msg string, args ...any) { cl.logger.WarnContext(cl.ctx, msg, args...) }

// Error logs an error message with context fields.
func (cl *ContextLogger) Error(msg string, args ...any) {
	cl.logger.ErrorContext(cl.ctx, msg, args...)
}

// With creates a new context logger with additional fields.
func (cl *ContextLogger) With(args ...any) *ContextLogger {
	return &ContextLogger{logger: cl.logger.With(args...), ctx: cl.ctx}
}
