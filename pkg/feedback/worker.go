package feedback

import (
	"context"
	"log/slog"
	"strconv"
)

// Worker consumes jobs serially from a Channel, applying feedback to the
// domain-quality model and emitting telemetry. Grounded on
// original_source/src/worker.rs's DBWorker{pool, channel}/process_job
// match-dispatch, translated to a Go switch. The Rust original isolates
// this loop on a second OS thread with its own Tokio runtime so that slow
// DB writes cannot stall the request pool (spec §5, §9 "Thread vs. task
// for the worker"); here that isolation is a dedicated goroutine with its
// own buffered channel, since the Go scheduler already parks blocking I/O
// off other goroutines without a second runtime being necessary.
type Worker struct {
	ch       *Channel
	registry Registry
	sink     Sink
	metrics  MetricsRecorder
	log      *slog.Logger
}

// NewWorker constructs a Worker over the given channel, registry, and
// optional telemetry sink (nil disables telemetry, per spec §6 "if unset,
// telemetry is disabled") and metrics recorder (nil disables metrics).
func NewWorker(ch *Channel, registry Registry, sink Sink, metrics MetricsRecorder, log *slog.Logger) *Worker {
	return &Worker{ch: ch, registry: registry, sink: sink, metrics: metrics, log: log}
}

// Run consumes jobs until the channel is closed and drained. It is meant to
// be started on its own goroutine by the admin lifecycle shell.
func (w *Worker) Run(ctx context.Context) {
	for job := range w.ch.jobs {
		w.processJob(ctx, job)
	}
	w.log.Info("feedback worker drained, exiting")
}

func (w *Worker) processJob(ctx context.Context, job Job) {
	switch {
	case job.ProxyResponse != nil:
		w.processProxyResponse(ctx, job.ProxyResponse)
	case job.RecalculateRanking != nil:
		w.processRecalculateRanking(ctx, job.RecalculateRanking)
	default:
		w.log.Warn("feedback worker received empty job")
	}
}

func (w *Worker) processProxyResponse(ctx context.Context, pr *ProxyResponse) {
	var domainID int64
	if pr.Domain != "" {
		id, err := w.registry.EnsureDomainID(ctx, pr.Domain)
		if err != nil {
			w.log.Error("feedback: ensure domain failed", "domain", pr.Domain, "error", err)
			return
		}
		domainID = id
	}

	if w.sink != nil {
		tags := map[string]string{"domain": pr.Domain, "proxy_id": strconv.FormatInt(pr.ProxyID, 10)}
		fields := map[string]any{"response_time": pr.ResponseTimeMS, "status": pr.Status}
		if err := w.sink.Send(ctx, "proxy_response", tags, fields); err != nil {
			w.log.Warn("feedback: telemetry sink error", "error", err)
		}
	}

	success := pr.Status < 400
	if err := w.registry.BumpCoefficient(ctx, pr.ProxyID, domainID, success); err != nil {
		w.log.Error("feedback: bump coefficient failed", "proxy_id", pr.ProxyID, "domain_id", domainID, "error", err)
		return
	}
	if w.metrics != nil {
		w.metrics.RecordCoefficientBump(success)
	}
}

// processRecalculateRanking is a reserved extension point (spec §9): it
// must never fail the worker, and currently only observes that the tick
// fired.
func (w *Worker) processRecalculateRanking(_ context.Context, _ *RecalculateRanking) {
	w.log.Debug("recalculate ranking tick (no-op)")
}
