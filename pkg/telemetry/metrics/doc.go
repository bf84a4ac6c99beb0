// Package metrics provides Prometheus instrumentation for the CA's leaf
// cache, the domain-coefficient feedback loop, and forward-request
// dispatch, exposed on an admin-only port separate from the proxy listener
// (spec §6, SPEC_FULL.md B).
//
// # Usage
//
//	collector := metrics.NewCollector(true, nil)
//	collector.RecordDispatch(200, 340*time.Millisecond)
//	collector.RecordCacheHit("leaf_config")
//	collector.RecordCoefficientBump(true)
//
//	http.Handle("/metrics", collector.Handler())
package metrics
