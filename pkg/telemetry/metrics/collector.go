package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "locust"
	subsystem = "proxy"
)

// Collector is the orchestrator for all Prometheus metrics Locust exposes.
// Grounded on the teacher's Collector (pkg/telemetry/metrics/collector.go)
// — one struct per metric family, registered against a single
// *prometheus.Registry — narrowed to this proxy's own metric families.
type Collector struct {
	enabled  bool
	registry *prometheus.Registry

	cache       *CacheMetrics
	dispatch    *DispatchMetrics
	coefficient *CoefficientMetrics
}

// NewCollector creates a metrics collector. If registry is nil, a fresh
// *prometheus.Registry is used rather than the global default, so tests can
// construct independent collectors without colliding on metric names.
func NewCollector(enabled bool, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	return &Collector{
		enabled:     enabled,
		registry:    registry,
		cache:       newCacheMetrics(registry),
		dispatch:    newDispatchMetrics(registry),
		coefficient: newCoefficientMetrics(registry),
	}
}

// RecordCacheHit records a leaf-config cache hit for the given authority
// cache (spec §4.A).
func (c *Collector) RecordCacheHit(cacheName string) {
	if !c.enabled {
		return
	}
	c.cache.RecordHit(cacheName)
}

// RecordCacheMiss records a leaf-config cache miss.
func (c *Collector) RecordCacheMiss(cacheName string) {
	if !c.enabled {
		return
	}
	c.cache.RecordMiss(cacheName)
}

// UpdateCacheSize reports the current number of cached leaf configs.
func (c *Collector) UpdateCacheSize(cacheName string, size int) {
	if !c.enabled {
		return
	}
	c.cache.UpdateSize(cacheName, size)
}

// RecordDispatch records a completed forward-request dispatch (spec §4.E.4,
// §4.D).
func (c *Collector) RecordDispatch(status int, duration time.Duration) {
	if !c.enabled {
		return
	}
	c.dispatch.Record(status, duration)
}

// RecordCoefficientBump records a domain-coefficient adjustment (spec §4.B,
// §4.D).
func (c *Collector) RecordCoefficientBump(success bool) {
	if !c.enabled {
		return
	}
	c.coefficient.RecordBump(success)
}

// Registry returns the Prometheus registry backing this collector, for
// mounting a /metrics handler.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
