package metrics

import (
	"github.com/clusterfs/rpcsec/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// GateMetrics tracks the server-side flavor gate (component E): accept/
// reject decisions per import and rotation events.
type GateMetrics struct {
	accepted  *prometheus.CounterVec
	rejected  *prometheus.CounterVec
	changed   *prometheus.CounterVec
	rotations *prometheus.CounterVec
}

// NewGateMetrics creates and registers flavor-gate metrics.
func NewGateMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *GateMetrics {
	gm := &GateMetrics{
		accepted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "flavor_gate_accepted_total",
				Help:      "Total number of flavors accepted by the gate, by import",
			},
			[]string{"import"},
		),
		rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "flavor_gate_rejected_total",
				Help:      "Total number of flavors rejected by the gate, by import",
			},
			[]string{"import"},
		),
		changed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "flavor_gate_changed_total",
				Help:      "Total number of accepted checks that confirmed a staged rotation or matched a historical (superseded) flavor",
			},
			[]string{"import"},
		),
		rotations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "flavor_gate_rotations_total",
				Help:      "Total number of flavor gate rotations, by import",
			},
			[]string{"import"},
		),
	}

	registry.MustRegister(gm.accepted, gm.rejected, gm.changed, gm.rotations)
	return gm
}

// RecordCheck records the outcome of one Gate.Check call.
func (gm *GateMetrics) RecordCheck(importName string, accept, changed bool) {
	if !accept {
		gm.rejected.WithLabelValues(importName).Inc()
		return
	}
	gm.accepted.WithLabelValues(importName).Inc()
	if changed {
		gm.changed.WithLabelValues(importName).Inc()
	}
}

// RecordRotation records one confirmed Gate rotation (a Check call
// that matched a staged flavor and swapped it into current).
func (gm *GateMetrics) RecordRotation(importName string) {
	gm.rotations.WithLabelValues(importName).Inc()
}
