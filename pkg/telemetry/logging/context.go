package logging

import (
	"context"
)

// Context keys for common log fields.
type contextKey string

const (
	// RequestIDKey is the context key for RPC request IDs.
	RequestIDKey contextKey = "request_id"

	// ImportKey is the context key for the Import name a request/context
	// belongs to (spec section 4.A).
	ImportKey contextKey = "import"

	// PolicyKey is the context key for the negotiated policy name
	// (component A's registered policy).
	PolicyKey contextKey = "policy"

	// FlavorKey is the context key for the flavor's string form
	// (spec section 6 "Wire flavor codes").
	FlavorKey contextKey = "flavor"

	// UIDKey is the context key for the client credential's uid
	// (spec section 4.B "Cred").
	UIDKey contextKey = "uid"

	// TraceIDKey is the context key for trace IDs.
	TraceIDKey contextKey = "trace_id"

	// SpanIDKey is the context key for span IDs.
	SpanIDKey contextKey = "span_id"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithImport adds an Import name to the context.
func WithImport(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ImportKey, name)
}

// GetImport retrieves the Import name from the context.
func GetImport(ctx context.Context) string {
	if name, ok := ctx.Value(ImportKey).(string); ok {
		return name
	}
	return ""
}

// WithPolicy adds a policy name to the context.
func WithPolicy(ctx context.Context, policy string) context.Context {
	return context.WithValue(ctx, PolicyKey, policy)
}

// GetPolicy retrieves the policy name from the context.
func GetPolicy(ctx context.Context) string {
	if policy, ok := ctx.Value(PolicyKey).(string); ok {
		return policy
	}
	return ""
}

// WithFlavor adds a flavor's string form to the context.
func WithFlavor(ctx context.Context, flavor string) context.Context {
	return context.WithValue(ctx, FlavorKey, flavor)
}

// GetFlavor retrieves the flavor string from the context.
func GetFlavor(ctx context.Context) string {
	if flavor, ok := ctx.Value(FlavorKey).(string); ok {
		return flavor
	}
	return ""
}

// WithUID adds a credential uid to the context.
func WithUID(ctx context.Context, uid uint32) context.Context {
	return context.WithValue(ctx, UIDKey, uid)
}

// GetUID retrieves the credential uid from the context.
func GetUID(ctx context.Context) (uint32, bool) {
	uid, ok := ctx.Value(UIDKey).(uint32)
	return uid, ok
}

// WithTraceID adds a trace ID to the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace ID from the context.
func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// WithSpanID adds a span ID to the context.
func WithSpanID(ctx context.Context, spanID string) context.Context {
	return context.WithValue(ctx, SpanIDKey, spanID)
}

// GetSpanID retrieves the span ID from the context.
func GetSpanID(ctx context.Context) string {
	if spanID, ok := ctx.Value(SpanIDKey).(string); ok {
		return spanID
	}
	return ""
}

// extractContextFields extracts common fields from context for logging.
// Returns a slice of key-value pairs suitable for logger.With().
func extractContextFields(ctx context.Context) []any {
	var fields []any

	if requestID := GetRequestID(ctx); requestID != "" {
		fields = append(fields, "request_id", requestID)
	}
	if imp := GetImport(ctx); imp != "" {
		fields = append(fields, "import", imp)
	}
	if policy := GetPolicy(ctx); policy != "" {
		fields = append(fields, "policy", policy)
	}
	if flavor := GetFlavor(ctx); flavor != "" {
		fields = append(fields, "flavor", flavor)
	}
	if uid, ok := GetUID(ctx); ok {
		fields = append(fields, "uid", uid)
	}
	if traceID := GetTraceID(ctx); traceID != "" {
		fields = append(fields, "trace_id", traceID)
	}
	if spanID := GetSpanID(ctx); spanID != "" {
		fields = append(fields, "span_id", spanID)
	}

	return fields
}

// ContextLogger is a logger that automatically includes context fields.
type ContextLogger struct {
	logger *Logger
	ctx    context.Context
}

// NewContextLogger creates a logger that automatically includes context fields.
func NewContextLogger(logger *Logger, ctx context.Context) *ContextLogger {
	return &ContextLogger{
		logger: logger.WithContext(ctx),
		ctx:    ctx,
	}
}

// Debug logs a debug message with context fields.
func (cl *ContextLogger) Debug(msg string, args ...any) {
	cl.logger.DebugContext(cl.ctx, msg, args...)
}

// Info logs an info message with context fields.
func (cl *ContextLogger) Info(msg string, args ...any) {
	cl.logger.InfoContext(cl.ctx, msg, args...)
}

// Warn logs a warning message with context fields.
func (cl *ContextLogger) Warn(msg string, args ...any) {
	cl.logger.WarnContext(cl.ctx, msg, args...)
}

// Error logs an error message with context fields.
func (cl *ContextLogger) Error(msg string, args ...any) {
	cl.logger.ErrorContext(cl.ctx, msg, args...)
}

// With creates a new context logger with additional fields.
func (cl *ContextLogger) With(args ...any) *ContextLogger {
	return &ContextLogger{
		logger: cl.logger.With(args...),
		ctx:    cl.ctx,
	}
}
