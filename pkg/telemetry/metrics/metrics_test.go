package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 16)
	c.Collect(ch)
	close(ch)

	var total float64
	for m := range ch {
		var pb dto.Metric
		if err := m.Write(&pb); err != nil {
			t.Fatalf("write metric: %v", err)
		}
		if pb.Counter != nil {
			total += pb.Counter.GetValue()
		}
	}
	return total
}

func TestCollectorRecordsCacheHitsAndMisses(t *testing.T) {
	c := NewCollector(true, prometheus.NewRegistry())
	c.RecordCacheHit("leaf_config")
	c.RecordCacheHit("leaf_config")
	c.RecordCacheMiss("leaf_config")

	if got := counterValue(t, c.cache.hitsTotal); got != 2 {
		t.Errorf("hits = %v, want 2", got)
	}
	if got := counterValue(t, c.cache.missesTotal); got != 1 {
		t.Errorf("misses = %v, want 1", got)
	}
}

func TestCollectorDisabledIsNoop(t *testing.T) {
	c := NewCollector(false, prometheus.NewRegistry())
	c.RecordCacheHit("leaf_config")
	c.RecordDispatch(200, time.Millisecond)
	c.RecordCoefficientBump(true)

	if got := counterValue(t, c.cache.hitsTotal); got != 0 {
		t.Errorf("disabled collector recorded a cache hit: %v", got)
	}
}

func TestCollectorRecordsDispatchAndCoefficient(t *testing.T) {
	c := NewCollector(true, prometheus.NewRegistry())
	c.RecordDispatch(200, 50*time.Millisecond)
	c.RecordDispatch(502, 10*time.Millisecond)
	c.RecordCoefficientBump(true)
	c.RecordCoefficientBump(false)

	if got := counterValue(t, c.dispatch.total); got != 2 {
		t.Errorf("dispatch total = %v, want 2", got)
	}
	if got := counterValue(t, c.coefficient.bumpsTotal); got != 2 {
		t.Errorf("coefficient bumps total = %v, want 2", got)
	}
}
