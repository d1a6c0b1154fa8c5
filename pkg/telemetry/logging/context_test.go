package logging

import (
	"context"
	"strconv"
	"testing"
)

func TestContextKeys(t *testing.T) {
	ctx := context.Background()

	// Test RequestID
	ctx = WithRequestID(ctx, "req-123")
	if got := GetRequestID(ctx); got != "req-123" {
		t.Errorf("GetRequestID() = %q, want %q", got, "req-123")
	}

	// Test Import
	ctx = WithImport(ctx, "libfoo")
	if got := GetImport(ctx); got != "libfoo" {
		t.Errorf("GetImport() = %q, want %q", got, "libfoo")
	}

	// Test Policy
	ctx = WithPolicy(ctx, "gss")
	if got := GetPolicy(ctx); got != "gss" {
		t.Errorf("GetPolicy() = %q, want %q", got, "gss")
	}

	// Test Flavor
	ctx = WithFlavor(ctx, "krb5i")
	if got := GetFlavor(ctx); got != "krb5i" {
		t.Errorf("GetFlavor() = %q, want %q", got, "krb5i")
	}

	// Test UID
	ctx = WithUID(ctx, 1000)
	if got, ok := GetUID(ctx); !ok || got != 1000 {
		t.Errorf("GetUID() = (%v, %v), want (1000, true)", got, ok)
	}

	// Test TraceID
	ctx = WithTraceID(ctx, "trace-abc")
	if got := GetTraceID(ctx); got != "trace-abc" {
		t.Errorf("GetTraceID() = %q, want %q", got, "trace-abc")
	}

	// Test SpanID
	ctx = WithSpanID(ctx, "span-def")
	if got := GetSpanID(ctx); got != "span-def" {
		t.Errorf("GetSpanID() = %q, want %q", got, "span-def")
	}
}

func TestContextKeys_Empty(t *testing.T) {
	ctx := context.Background()

	// Test that string getters return empty strings for missing values
	tests := []struct {
		name string
		get  func(context.Context) string
	}{
		{"RequestID", GetRequestID},
		{"Import", GetImport},
		{"Policy", GetPolicy},
		{"Flavor", GetFlavor},
		{"TraceID", GetTraceID},
		{"SpanID", GetSpanID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.get(ctx); got != "" {
				t.Errorf("Get%s() = %q, want empty string", tt.name, got)
			}
		})
	}

	if uid, ok := GetUID(ctx); ok || uid != 0 {
		t.Errorf("GetUID() = (%v, %v), want (0, false)", uid, ok)
	}
}

func TestExtractContextFields(t *testing.T) {
	tests := []struct {
		name       string
		setupCtx   func(context.Context) context.Context
		wantFields map[string]string
	}{
		{
			name: "empty context",
			setupCtx: func(ctx context.Context) context.Context {
				return ctx
			},
			wantFields: map[string]string{},
		},
		{
			name: "request ID only",
			setupCtx: func(ctx context.Context) context.Context {
				return WithRequestID(ctx, "req-123")
			},
			wantFields: map[string]string{
				"request_id": "req-123",
			},
		},
		{
			name: "multiple fields",
			setupCtx: func(ctx context.Context) context.Context {
				ctx = WithRequestID(ctx, "req-456")
				ctx = WithImport(ctx, "libfoo")
				ctx = WithPolicy(ctx, "gss")
				ctx = WithFlavor(ctx, "krb5i")
				return ctx
			},
			wantFields: map[string]string{
				"request_id": "req-456",
				"import":     "libfoo",
				"policy":     "gss",
				"flavor":     "krb5i",
			},
		},
		{
			name: "all fields",
			setupCtx: func(ctx context.Context) context.Context {
				ctx = WithRequestID(ctx, "req-789")
				ctx = WithImport(ctx, "libbar")
				ctx = WithPolicy(ctx, "null")
				ctx = WithFlavor(ctx, "krb5p")
				ctx = WithUID(ctx, 1001)
				ctx = WithTraceID(ctx, "trace-1")
				ctx = WithSpanID(ctx, "span-1")
				return ctx
			},
			wantFields: map[string]string{
				"request_id": "req-789",
				"import":     "libbar",
				"policy":     "null",
				"flavor":     "krb5p",
				"uid":        "1001",
				"trace_id":   "trace-1",
				"span_id":    "span-1",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := tt.setupCtx(context.Background())
			fields := extractContextFields(ctx)

			// Convert []any to a string-keyed map for easier checking; every
			// field is a string except uid, which is a uint32.
			fieldsMap := make(map[string]string)
			for i := 0; i < len(fields); i += 2 {
				key := fields[i].(string)
				switch v := fields[i+1].(type) {
				case string:
					fieldsMap[key] = v
				case uint32:
					fieldsMap[key] = strconv.FormatUint(uint64(v), 10)
				}
			}

			// Check expected fields are present
			for key, expectedValue := range tt.wantFields {
				if gotValue, ok := fieldsMap[key]; !ok {
					t.Errorf("Expected field %q not found", key)
				} else if gotValue != expectedValue {
					t.Errorf("Field %q = %q, want %q", key, gotValue, expectedValue)
				}
			}

			// Check no extra fields
			if len(fieldsMap) != len(tt.wantFields) {
				t.Errorf("Got %d fields, want %d. Fields: %v",
					len(fieldsMap), len(tt.wantFields), fieldsMap)
			}
		})
	}
}

func TestContextLogger(t *testing.T) {
	// This test verifies that ContextLogger properly wraps the logger
	// Actual logging is tested in logger_test.go

	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-cl-1")
	ctx = WithImport(ctx, "libfoo")

	// Create a basic logger (using nil config to test error handling is in logger_test)
	logger, err := New(Config{
		Level:      "info",
		Format:     "json",
		RedactPII:  false,
		BufferSize: 100,
	})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Shutdown()

	// Create context logger
	ctxLogger := NewContextLogger(logger, ctx)
	if ctxLogger == nil {
		t.Fatal("NewContextLogger returned nil")
	}

	// Test that methods don't panic
	ctxLogger.Debug("debug message")
	ctxLogger.Info("info message")
	ctxLogger.Warn("warn message")
	ctxLogger.Error("error message")

	// Test With
	childLogger := ctxLogger.With("extra", "value")
	if childLogger == nil {
		t.Fatal("ContextLogger.With returned nil")
	}

	childLogger.Info("child message")
}

func TestContextLogger_With(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-with-1")

	logger, err := New(Config{
		Level:      "info",
		Format:     "json",
		RedactPII:  false,
		BufferSize: 100,
	})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Shutdown()

	ctxLogger := NewContextLogger(logger, ctx)

	// Create child logger with additional fields
	childLogger := ctxLogger.With("key1", "value1", "key2", 42)
	if childLogger == nil {
		t.Fatal("ContextLogger.With returned nil")
	}

	// Verify it doesn't panic
	childLogger.Info("test message")
}

func TestContextChaining(t *testing.T) {
	// Test that context values can be added incrementally
	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-chain-1")
	ctx = WithImport(ctx, "libfoo")
	ctx = WithPolicy(ctx, "gss")

	// Verify all values are present
	if got := GetRequestID(ctx); got != "req-chain-1" {
		t.Errorf("After chaining, GetRequestID() = %q, want %q", got, "req-chain-1")
	}
	if got := GetImport(ctx); got != "libfoo" {
		t.Errorf("After chaining, GetImport() = %q, want %q", got, "libfoo")
	}
	if got := GetPolicy(ctx); got != "gss" {
		t.Errorf("After chaining, GetPolicy() = %q, want %q", got, "gss")
	}

	// Add more values
	ctx = WithFlavor(ctx, "krb5i")
	ctx = WithUID(ctx, 1000)

	if got := GetFlavor(ctx); got != "krb5i" {
		t.Errorf("After more chaining, GetFlavor() = %q, want %q", got, "krb5i")
	}
	if got, ok := GetUID(ctx); !ok || got != 1000 {
		t.Errorf("After more chaining, GetUID() = (%v, %v), want (1000, true)", got, ok)
	}

	// Verify original values still present
	if got := GetRequestID(ctx); got != "req-chain-1" {
		t.Errorf("Original value changed: GetRequestID() = %q, want %q", got, "req-chain-1")
	}
}

func TestContextOverwrite(t *testing.T) {
	// Test that context values can be overwritten
	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-old")

	if got := GetRequestID(ctx); got != "req-old" {
		t.Errorf("Initial GetRequestID() = %q, want %q", got, "req-old")
	}

	// Overwrite with new value
	ctx = WithRequestID(ctx, "req-new")

	if got := GetRequestID(ctx); got != "req-new" {
		t.Errorf("After overwrite, GetRequestID() = %q, want %q", got, "req-new")
	}
}

func BenchmarkExtractContextFields(b *testing.B) {
	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-bench")
	ctx = WithImport(ctx, "libfoo")
	ctx = WithPolicy(ctx, "gss")
	ctx = WithFlavor(ctx, "krb5i")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = extractContextFields(ctx)
	}
}

func BenchmarkWithRequestID(b *testing.B) {
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = WithRequestID(ctx, "req-123")
	}
}

func BenchmarkGetRequestID(b *testing.B) {
	ctx := WithRequestID(context.Background(), "req-123")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = GetRequestID(ctx)
	}
}
