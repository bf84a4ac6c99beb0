// Package feedback implements the bounded MPSC channel and background
// worker that apply response outcomes to the domain-quality model
// out-of-band from the request path (spec §4.D).
package feedback

import (
	"context"
	"log/slog"
)

// ProxyResponse is posted once per forward request that yields an HTTP
// status (spec §4.D, §8 invariant 4).
type ProxyResponse struct {
	ProxyID        int64
	Status         int
	ResponseTimeMS int64
	Domain         string
}

// RecalculateRanking is fired periodically by the lifecycle shell (spec
// §4.D, §4.F — every 5 minutes). Its body is a reserved extension point
// (spec §9): implementations may recompute cached rankings here, but no
// behavior is required beyond "must not fail the worker."
type RecalculateRanking struct{}

// Job is the sum type carried on the feedback channel. Exactly one of the
// two fields is non-nil.
type Job struct {
	ProxyResponse      *ProxyResponse
	RecalculateRanking *RecalculateRanking
}

// Registry is the subset of pkg/store's write path the worker needs,
// narrowed to an interface so the worker can be tested against a fake.
type Registry interface {
	EnsureDomainID(ctx context.Context, host string) (int64, error)
	BumpCoefficient(ctx context.Context, proxyID, domainID int64, success bool) error
}

// Sink emits telemetry records; errors are logged and dropped, never
// propagated (spec §4.D step 2, §7).
type Sink interface {
	Send(ctx context.Context, measurement string, tags map[string]string, fields map[string]any) error
}

// MetricsRecorder is the narrow metrics.Collector surface the worker
// reports coefficient adjustments through (SPEC_FULL.md domain-stack
// wiring). Nil disables metrics recording.
type MetricsRecorder interface {
	RecordCoefficientBump(success bool)
}

// Channel is a bounded, non-blocking-on-enqueue producer side of the
// feedback queue (spec §4.D, §5: "many producers, one consumer").
type Channel struct {
	jobs chan Job
	log  *slog.Logger
}

// NewChannel creates a Channel with the given buffer capacity.
func NewChannel(capacity int, log *slog.Logger) *Channel {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Channel{jobs: make(chan Job, capacity), log: log}
}

// Enqueue attempts to post job without blocking. If the queue is full, the
// attempt is logged as a warning and the request proceeds (spec §4.D,
// §8 invariant 4, §7 "Feedback channel full ... log warning, drop").
func (c *Channel) Enqueue(job Job) {
	select {
	case c.jobs <- job:
	default:
		c.log.Warn("feedback channel full, dropping job")
	}
}

// Close drops the channel's send side so a draining worker finishes its
// backlog and exits (spec §4.F).
func (c *Channel) Close() {
	close(c.jobs)
}
