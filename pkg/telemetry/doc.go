// Package telemetry is the parent of Locust's observability stack:
// structured logging with PII redaction (logging), Prometheus metrics
// (metrics), and an optional fire-and-forget feedback telemetry sink
// (sink). There is no tracing or health-check subpackage; nothing in
// SPEC_FULL.md calls for distributed tracing, and no component serves a
// separate health endpoint.
//
//	log, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	collector := metrics.NewCollector(true, nil)
//	s := sink.New("telegraf.internal:8094")
package telemetry
