package tracing

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span Attribute Helpers
//
// These functions provide a convenient way to set common attributes on spans.
// They use semantic conventions where applicable and ensure consistent attribute
// naming across the codebase.
//
// # Attribute Keys
//
// Standard attribute keys follow OpenTelemetry semantic conventions:
//   - http.*: HTTP-related attributes
//   - rpc.*: RPC-related attributes
//
// Custom attribute keys use the "rpcsec.*" namespace:
//   - rpcsec.import: bound import name
//   - rpcsec.flavor: negotiated wire flavor name
//   - rpcsec.policy: registered policy name
//   - rpcsec.uid/gid: caller credential

// Common attribute keys used throughout the system
const (
	// Import/flavor attributes
	AttrImport = "rpcsec.import"
	AttrFlavor = "rpcsec.flavor"
	AttrPolicy = "rpcsec.policy"

	// Credential attributes
	AttrUID = "rpcsec.uid"
	AttrGID = "rpcsec.gid"

	// Context lifecycle attributes
	AttrCtxNew       = "rpcsec.ctx.new"
	AttrCtxUptodate  = "rpcsec.ctx.uptodate"
	AttrCtxEternal   = "rpcsec.ctx.eternal"
	AttrRefreshCount = "rpcsec.ctx.refresh_count"

	// Codec attributes (the netlink<->YAML bridge)
	AttrCodecDirection = "rpcsec.codec.direction"
	AttrCodecRounds    = "rpcsec.codec.rounds"
	AttrCodecBytes     = "rpcsec.codec.bytes"

	// Error attributes
	AttrErrorType    = "rpcsec.error.type"
	AttrErrorMessage = "error.message"
	AttrErrorStack   = "error.stack"

	// Performance attributes
	AttrDuration   = "rpcsec.duration_ms"
	AttrRetryCount = "rpcsec.retry_count"
)

// SetImportAttributes sets import/flavor/policy attributes on a span.
//
// Example:
//
//	SetImportAttributes(span, "mds-0001", "null", "null")
func SetImportAttributes(span trace.Span, importName, flavorName, policyName string) {
	span.SetAttributes(
		attribute.String(AttrImport, importName),
		attribute.String(AttrFlavor, flavorName),
		attribute.String(AttrPolicy, policyName),
	)
}

// SetCredAttributes sets the caller credential (uid/gid) on a span.
//
// Example:
//
//	SetCredAttributes(span, 1000, 1000)
func SetCredAttributes(span trace.Span, uid, gid uint32) {
	span.SetAttributes(
		attribute.Int64(AttrUID, int64(uid)),
		attribute.Int64(AttrGID, int64(gid)),
	)
}

// SetCtxAttributes sets client-context lifecycle attributes on a span.
//
// Example:
//
//	SetCtxAttributes(span, ctx.IsNew(), ctx.IsUptodate(), ctx.IsEternal())
func SetCtxAttributes(span trace.Span, isNew, isUptodate, isEternal bool) {
	span.SetAttributes(
		attribute.Bool(AttrCtxNew, isNew),
		attribute.Bool(AttrCtxUptodate, isUptodate),
		attribute.Bool(AttrCtxEternal, isEternal),
	)
}

// SetRefreshAttribute records how many refresh round-trips a context
// has been through.
func SetRefreshAttribute(span trace.Span, count int) {
	span.SetAttributes(attribute.Int(AttrRefreshCount, count))
}

// SetCodecAttributes sets netlink<->YAML bridge attributes on a span:
// direction is "decode" or "encode".
//
// Example:
//
//	SetCodecAttributes(span, "decode", 3, 512)
func SetCodecAttributes(span trace.Span, direction string, rounds, bytes int) {
	span.SetAttributes(
		attribute.String(AttrCodecDirection, direction),
		attribute.Int(AttrCodecRounds, rounds),
		attribute.Int(AttrCodecBytes, bytes),
	)
}

// SetErrorAttributes sets error-related attributes on a span.
// This also records the error using span.RecordError() and sets the span status.
//
// Example:
//
//	SetErrorAttributes(span, err, "refresh_timeout")
func SetErrorAttributes(span trace.Span, err error, errorType string) {
	if err == nil {
		return
	}

	span.SetAttributes(
		attribute.Bool("error", true),
		attribute.String(AttrErrorType, errorType),
		attribute.String(AttrErrorMessage, err.Error()),
	)

	// Record error and set status
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetDurationAttribute sets the duration attribute on a span.
// Duration is recorded in milliseconds.
//
// Example:
//
//	start := time.Now()
//	// ... do work ...
//	SetDurationAttribute(span, time.Since(start).Milliseconds())
func SetDurationAttribute(span trace.Span, durationMs int64) {
	span.SetAttributes(attribute.Int64(AttrDuration, durationMs))
}

// SetRetryAttribute sets the retry count attribute on a span.
//
// Example:
//
//	SetRetryAttribute(span, 2)
func SetRetryAttribute(span trace.Span, retryCount int) {
	span.SetAttributes(attribute.Int(AttrRetryCount, retryCount))
}

// AddEvent adds a named event to the span with optional attributes.
// Events represent interesting points in the span's lifetime.
//
// Example:
//
//	AddEvent(span, "ctx_refreshed",
//	    attribute.String("import", "mds-0001"),
//	)
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// RecordException records an exception event on the span.
// This is a convenience wrapper around span.RecordError for callers
// that don't otherwise need the trace package imported.
//
// Example:
//
//	RecordException(span, err)
func RecordException(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
}

// AttributeBuilder provides a fluent interface for building span attributes.
type AttributeBuilder struct {
	attrs []attribute.KeyValue
}

// NewAttributeBuilder creates a new attribute builder.
func NewAttributeBuilder() *AttributeBuilder {
	return &AttributeBuilder{
		attrs: make([]attribute.KeyValue, 0, 8),
	}
}

// WithImport adds import/flavor/policy attributes.
func (ab *AttributeBuilder) WithImport(importName, flavorName, policyName string) *AttributeBuilder {
	ab.attrs = append(ab.attrs,
		attribute.String(AttrImport, importName),
		attribute.String(AttrFlavor, flavorName),
		attribute.String(AttrPolicy, policyName),
	)
	return ab
}

// WithCred adds caller credential attributes.
func (ab *AttributeBuilder) WithCred(uid, gid uint32) *AttributeBuilder {
	ab.attrs = append(ab.attrs,
		attribute.Int64(AttrUID, int64(uid)),
		attribute.Int64(AttrGID, int64(gid)),
	)
	return ab
}

// WithCodec adds netlink<->YAML bridge attributes.
func (ab *AttributeBuilder) WithCodec(direction string, rounds, bytes int) *AttributeBuilder {
	ab.attrs = append(ab.attrs,
		attribute.String(AttrCodecDirection, direction),
		attribute.Int(AttrCodecRounds, rounds),
		attribute.Int(AttrCodecBytes, bytes),
	)
	return ab
}

// WithCustom adds a custom attribute.
func (ab *AttributeBuilder) WithCustom(key string, value interface{}) *AttributeBuilder {
	switch v := value.(type) {
	case string:
		ab.attrs = append(ab.attrs, attribute.String(key, v))
	case int:
		ab.attrs = append(ab.attrs, attribute.Int(key, v))
	case int64:
		ab.attrs = append(ab.attrs, attribute.Int64(key, v))
	case float64:
		ab.attrs = append(ab.attrs, attribute.Float64(key, v))
	case bool:
		ab.attrs = append(ab.attrs, attribute.Bool(key, v))
	default:
		// Fall back to string representation
		ab.attrs = append(ab.attrs, attribute.String(key, fmt.Sprintf("%v", v)))
	}
	return ab
}

// Build returns the built attributes as a trace.SpanStartOption.
func (ab *AttributeBuilder) Build() trace.SpanStartOption {
	return trace.WithAttributes(ab.attrs...)
}

// Apply applies the attributes to a span.
func (ab *AttributeBuilder) Apply(span trace.Span) {
	span.SetAttributes(ab.attrs...)
}

// Attributes returns the raw attribute slice.
func (ab *AttributeBuilder) Attributes() []attribute.KeyValue {
	return ab.attrs
}
