package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DispatchMetrics tracks forward-request dispatch outcomes (spec §4.E.4),
// the same family the feedback worker learns from (spec §4.D) surfaced for
// operator dashboards. Grounded on the teacher's RequestMetrics shape
// (duration histogram + status counter) narrowed to this pipeline's single
// operation.
type DispatchMetrics struct {
	durationSeconds *prometheus.HistogramVec
	total           *prometheus.CounterVec
}

func newDispatchMetrics(registry *prometheus.Registry) *DispatchMetrics {
	dm := &DispatchMetrics{
		durationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace, Subsystem: subsystem,
				Name:    "dispatch_duration_seconds",
				Help:    "Upstream dispatch latency in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 180},
			}, []string{"status"}),
		total: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace, Subsystem: subsystem,
				Name: "dispatch_total", Help: "Total number of completed upstream dispatches",
			}, []string{"status"}),
	}
	registry.MustRegister(dm.durationSeconds, dm.total)
	return dm
}

// Record records one completed dispatch.
func (dm *DispatchMetrics) Record(status int, duration time.Duration) {
	label := strconv.Itoa(status)
	dm.durationSeconds.WithLabelValues(label).Observe(duration.Seconds())
	dm.total.WithLabelValues(label).Inc()
}
