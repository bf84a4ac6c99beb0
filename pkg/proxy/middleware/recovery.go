package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/locust-proxy/locust/pkg/telemetry/logging"
)

// RecoveryMiddleware recovers from panics in the forward-request handler
// chain and returns an empty-bodied 502, matching the pipeline's other
// upstream-failure responses (spec §4.E.3.e) rather than a JSON error
// envelope — this proxy has no API surface of its own to describe an error
// in.
func RecoveryMiddleware(log *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.ErrorContext(r.Context(), "panic in request pipeline",
					"error", err,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				w.WriteHeader(http.StatusBadGateway)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
