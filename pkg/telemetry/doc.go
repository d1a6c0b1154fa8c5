// Package telemetry is the parent of rpcsecd's observability
// subpackages: structured logging, Prometheus metrics, OpenTelemetry
// tracing, and HTTP health/readiness endpoints.
//
// # Overview
//
// There is no telemetry aggregator type here — each subpackage is
// constructed and wired independently where it's needed (see
// cmd/rpcsecd/serve.go), keeping a caller free to run with only the
// pieces it wants (e.g. logging and metrics, tracing disabled).
//
// # Components
//
//   - logging: Structured logging with PII redaction
//   - metrics: Prometheus metrics collection
//   - tracing: OpenTelemetry distributed tracing
//   - health: Liveness/readiness/version HTTP endpoints
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level: cfg.Telemetry.Logging.Level, Format: cfg.Telemetry.Logging.Format,
//	})
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
//
//	ctx, span := tracer.Start(ctx, "rpcsec.request")
//	defer span.End()
//	logger.Info("request processed", "import", "mds-0001")
//
// # Performance
//
// Each subpackage is designed for minimal overhead:
//
//   - Logging: <10µs when enabled, <1µs when disabled
//   - Metrics: <50µs per metric update
//   - Tracing: <100µs per span
//
// # PII Protection
//
// By default, the logging subpackage redacts PII-shaped values from
// log output:
//
//   - API keys: sk-abc123 → sk-***
//   - Emails: user@example.com → u***@example.com
//   - SSN: 123-45-6789 → ***-**-****
//   - IP addresses: 192.168.1.1 → 192.*.*.*
//
// Custom redaction patterns (config.RedactPattern values) are passed in
// logging.Config.RedactPatterns; config.LoggingConfig has no field for
// them.
package telemetry
