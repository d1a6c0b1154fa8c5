package metrics

import (
	"time"

	"github.com/clusterfs/rpcsec/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// SecMetrics tracks the lifecycle of Sec and CliCtx objects (components
// B/C): how many are created and killed per policy, and how long the
// refresh upcall (spec section 4.C) takes.
type SecMetrics struct {
	secsCreated *prometheus.CounterVec
	secsKilled  *prometheus.CounterVec

	refreshDuration *prometheus.HistogramVec
	refreshErrors   *prometheus.CounterVec

	ctxCacheSize *prometheus.GaugeVec
}

// NewSecMetrics creates and registers Sec/CliCtx lifecycle metrics.
func NewSecMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *SecMetrics {
	sm := &SecMetrics{
		secsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "secs_created_total",
				Help:      "Total number of Sec objects created, by policy",
			},
			[]string{"policy"},
		),
		secsKilled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "secs_killed_total",
				Help:      "Total number of Sec objects that transitioned to dying, by policy",
			},
			[]string{"policy"},
		),
		refreshDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "ctx_refresh_duration_seconds",
				Help:      "Duration of the CliCtx refresh loop (spec section 4.C)",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 16), // 100us to ~3.3s
			},
			[]string{"policy", "outcome"},
		),
		refreshErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "ctx_refresh_errors_total",
				Help:      "Total number of refresh loop failures, by error class",
			},
			[]string{"policy", "error"},
		),
		ctxCacheSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "ctx_cache_entries",
				Help:      "Current number of cached CliCtx entries per Sec",
			},
			[]string{"policy"},
		),
	}

	registry.MustRegister(
		sm.secsCreated,
		sm.secsKilled,
		sm.refreshDuration,
		sm.refreshErrors,
		sm.ctxCacheSize,
	)
	return sm
}

// RecordSecCreated records one Sec created under the given policy label (a
// policy name such as "gss").
func (sm *SecMetrics) RecordSecCreated(policy string) {
	sm.secsCreated.WithLabelValues(policy).Inc()
}

// RecordSecKilled records one Sec transitioning to dying.
func (sm *SecMetrics) RecordSecKilled(policy string) {
	sm.secsKilled.WithLabelValues(policy).Inc()
}

// RecordRefresh records one completed Refresh call (spec section 4.C).
func (sm *SecMetrics) RecordRefresh(policy, outcome string, duration time.Duration) {
	sm.refreshDuration.WithLabelValues(policy, outcome).Observe(duration.Seconds())
}

// RecordRefreshError records a refresh failure by error class (e.g.
// "permission", "timeout", "interrupted", "deactivated").
func (sm *SecMetrics) RecordRefreshError(policy, errClass string) {
	sm.refreshErrors.WithLabelValues(policy, errClass).Inc()
}

// UpdateCtxCacheSize updates the current CliCtx cache entry count for a Sec.
func (sm *SecMetrics) UpdateCtxCacheSize(policy string, size int) {
	sm.ctxCacheSize.WithLabelValues(policy).Set(float64(size))
}
