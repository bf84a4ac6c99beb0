package metrics

import "github.com/prometheus/client_golang/prometheus"

// CacheMetrics tracks the CA's leaf-config cache performance (spec §4.A).
// Grounded on the teacher's CacheMetrics (pkg/telemetry/metrics/cache.go),
// narrowed from a generic named-cache tracker to the one cache this proxy
// actually runs.
type CacheMetrics struct {
	hitsTotal   *prometheus.CounterVec
	missesTotal *prometheus.CounterVec
	entries     *prometheus.GaugeVec
}

func newCacheMetrics(registry *prometheus.Registry) *CacheMetrics {
	cm := &CacheMetrics{
		hitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace, Subsystem: subsystem,
				Name: "cache_hits_total", Help: "Total number of leaf-config cache hits",
			}, []string{"cache"}),
		missesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace, Subsystem: subsystem,
				Name: "cache_misses_total", Help: "Total number of leaf-config cache misses",
			}, []string{"cache"}),
		entries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace, Subsystem: subsystem,
				Name: "cache_entries", Help: "Current number of entries in the leaf-config cache",
			}, []string{"cache"}),
	}
	registry.MustRegister(cm.hitsTotal, cm.missesTotal, cm.entries)
	return cm
}

// RecordHit records a cache hit.
func (cm *CacheMetrics) RecordHit(cacheName string) {
	cm.hitsTotal.WithLabelValues(cacheName).Inc()
}

// RecordMiss records a cache miss.
func (cm *CacheMetrics) RecordMiss(cacheName string) {
	cm.missesTotal.WithLabelValues(cacheName).Inc()
}

// UpdateSize reports the cache's current entry count.
func (cm *CacheMetrics) UpdateSize(cacheName string, size int) {
	cm.entries.WithLabelValues(cacheName).Set(float64(size))
}
