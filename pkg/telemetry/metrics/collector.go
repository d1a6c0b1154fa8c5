package metrics

import (
	"time"

	"github.com/clusterfs/rpcsec/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector is the orchestrator for every Prometheus metric this
// security layer exposes. It owns one registry and one metric subsystem
// per component that has something worth scraping: Sec/CliCtx lifecycle
// (components B/C), the flavor gate (component E), and the Netlink <->
// YAML codec (component F).
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	sec   *SecMetrics
	gate  *GateMetrics
	codec *CodecMetrics
}

// NewCollector creates a metrics collector against the given config and
// registry. A nil registry gets a fresh prometheus.NewRegistry().
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "rpcsec"
	}

	return &Collector{
		config:   cfg,
		registry: registry,
		sec:      NewSecMetrics(cfg, registry),
		gate:     NewGateMetrics(cfg, registry),
		codec:    NewCodecMetrics(cfg, registry),
	}
}

// RecordSecCreated records one Sec created under policy.
func (c *Collector) RecordSecCreated(policy string) {
	if !c.config.Enabled {
		return
	}
	c.sec.RecordSecCreated(policy)
}

// RecordSecKilled records one Sec transitioning to dying.
func (c *Collector) RecordSecKilled(policy string) {
	if !c.config.Enabled {
		return
	}
	c.sec.RecordSecKilled(policy)
}

// RecordRefresh records one completed CliCtx refresh loop.
func (c *Collector) RecordRefresh(policy, outcome string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.sec.RecordRefresh(policy, outcome, duration)
}

// RecordRefreshError records a refresh loop failure.
func (c *Collector) RecordRefreshError(policy, errClass string) {
	if !c.config.Enabled {
		return
	}
	c.sec.RecordRefreshError(policy, errClass)
}

// UpdateCtxCacheSize updates the current CliCtx cache size for a Sec's policy.
func (c *Collector) UpdateCtxCacheSize(policy string, size int) {
	if !c.config.Enabled {
		return
	}
	c.sec.UpdateCtxCacheSize(policy, size)
}

// RecordGateCheck records a flavor gate accept/reject decision.
func (c *Collector) RecordGateCheck(importName string, accept, changed bool) {
	if !c.config.Enabled {
		return
	}
	c.gate.RecordCheck(importName, accept, changed)
}

// RecordGateRotation records a flavor gate rotation.
func (c *Collector) RecordGateRotation(importName string) {
	if !c.config.Enabled {
		return
	}
	c.gate.RecordRotation(importName)
}

// RecordCodecDecodedRound records one decoded Round of n bytes.
func (c *Collector) RecordCodecDecodedRound(kind string, n int) {
	if !c.config.Enabled {
		return
	}
	c.codec.RecordDecodedRound(kind, n)
}

// RecordCodecEncodedChunk records n bytes consumed by the encoder.
func (c *Collector) RecordCodecEncodedChunk(n int) {
	if !c.config.Enabled {
		return
	}
	c.codec.RecordEncodedChunk(n)
}

// RecordCodecError records a codec failure on the given direction.
func (c *Collector) RecordCodecError(direction string) {
	if !c.config.Enabled {
		return
	}
	c.codec.RecordError(direction)
}

// Registry returns the underlying Prometheus registry, for mounting an
// HTTP handler (see Handler).
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
