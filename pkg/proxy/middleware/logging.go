package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/locust-proxy/locust/pkg/telemetry/logging"
)

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// LoggingMiddleware logs request/response pairs through the given Logger:
// method, path, status, latency and remote address. The request id, domain,
// proxy id and session id are attached to the context inside the handler
// it wraps, so these two log lines do not carry them.
func LoggingMiddleware(log *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := context.WithValue(r.Context(), StartTimeKey, start)

			rw := newResponseWriter(w)

			log.DebugContext(ctx, "request started",
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)

			next.ServeHTTP(rw, r.WithContext(ctx))

			latency := time.Since(start)
			logFn := log.InfoContext
			switch {
			case rw.statusCode >= 500:
				logFn = log.ErrorContext
			case rw.statusCode >= 400:
				logFn = log.WarnContext
			}

			logFn(ctx, "request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rw.statusCode,
				"latency_ms", latency.Milliseconds(),
				"remote_addr", r.RemoteAddr,
			)
		})
	}
}

// GetStartTime extracts the request start time from the context.
func GetStartTime(ctx context.Context) time.Time {
	if startTime, ok := ctx.Value(StartTimeKey).(time.Time); ok {
		return startTime
	}
	return time.Time{}
}
