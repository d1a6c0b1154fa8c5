// Package metrics provides Prometheus metrics for the security layer.
//
// # Metrics Categories
//
//   - Sec/CliCtx lifecycle (components B/C): creation/kill counters per
//     policy, the refresh loop's latency histogram and error counter,
//     per-policy CliCtx cache size gauge.
//   - Flavor gate (component E): accept/reject/rotation counters per import.
//   - Netlink <-> YAML codec (component F): bytes and message counts by
//     direction and kind.
//
// # Usage
//
//	collector := metrics.NewCollector(cfg, registry)
//	collector.RecordSecCreated("gss")
//	collector.RecordRefresh("gss", "uptodate", 4*time.Millisecond)
//	collector.RecordGateCheck("client-import", true, false)
//	http.Handle("/metrics", collector.Handler())
package metrics
