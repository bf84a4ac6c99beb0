package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/locust-proxy/locust/pkg/telemetry/logging"
)

// RequestIDHeader is the HTTP header carrying the request id.
const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware gives every request that reaches the forward path a
// request id (the client's X-Request-ID when present, otherwise a fresh
// UUIDv4), storing it under the same context key
// pkg/telemetry/logging attaches to log records, so a request's log lines
// and its response header correlate without a second key space.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := logging.WithRequestID(r.Context(), requestID)
		w.Header().Set(RequestIDHeader, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID extracts the request id from the context, or "" if absent.
func GetRequestID(ctx context.Context) string {
	return logging.GetRequestID(ctx)
}
