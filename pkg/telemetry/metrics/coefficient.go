package metrics

import "github.com/prometheus/client_golang/prometheus"

// CoefficientMetrics tracks the domain-quality feedback loop's adjustments
// (spec §4.B, §4.D, §8 invariant 5).
type CoefficientMetrics struct {
	bumpsTotal *prometheus.CounterVec
}

func newCoefficientMetrics(registry *prometheus.Registry) *CoefficientMetrics {
	cm := &CoefficientMetrics{
		bumpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace, Subsystem: subsystem,
				Name: "coefficient_bumps_total", Help: "Total number of domain-coefficient adjustments",
			}, []string{"outcome"}),
	}
	registry.MustRegister(cm.bumpsTotal)
	return cm
}

// RecordBump records one coefficient adjustment.
func (cm *CoefficientMetrics) RecordBump(success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	cm.bumpsTotal.WithLabelValues(outcome).Inc()
}
