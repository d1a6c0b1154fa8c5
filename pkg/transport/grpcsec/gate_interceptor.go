package grpcsec

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/clusterfs/rpcsec/pkg/flavorgate"
	"github.com/clusterfs/rpcsec/pkg/rpcpipeline"
	"github.com/clusterfs/rpcsec/pkg/telemetry/logging"
	"github.com/clusterfs/rpcsec/pkg/telemetry/metrics"
)

// GateInterceptor is the server-side counterpart of Interceptor: it
// runs target_export_check (spec section 4.E) against every incoming
// request's wrapped-body flavor before the handler runs, using a
// single flavorgate.Gate per export target.
type GateInterceptor struct {
	gate        *flavorgate.Gate
	exportName  string
	install     flavorgate.ReverseCtxInstaller
	contextFini func(method string) bool
	gssRootInit func(method string) bool
	skip        func(method string) bool
	metrics     *metrics.Collector
	logger      *logging.Logger
}

// healthCheckMethodPrefix is the gRPC health-checking protocol's
// service name (grpc.health.v1.Health); RPCs against it never carry a
// wrapped body and are exempt from the gate by default.
const healthCheckMethodPrefix = "/grpc.health.v1.Health/"

// GateOption configures a GateInterceptor.
type GateOption func(*GateInterceptor)

// WithGateReverseCtxInstaller installs the hook called when a GSS
// root-init request is accepted, or a staged rotation is confirmed by
// one (spec section 4.E step 4a).
func WithGateReverseCtxInstaller(install flavorgate.ReverseCtxInstaller) GateOption {
	return func(gi *GateInterceptor) { gi.install = install }
}

// WithGateContextFini marks which methods are context-destroy RPCs,
// which always pass regardless of flavor (spec section 4.E step 2).
func WithGateContextFini(isContextFini func(method string) bool) GateOption {
	return func(gi *GateInterceptor) { gi.contextFini = isContextFini }
}

// WithGateGSSRootInit marks which methods are GSS root-init requests
// (spec section 4.E steps 3-4a).
func WithGateGSSRootInit(isGSSRootInit func(method string) bool) GateOption {
	return func(gi *GateInterceptor) { gi.gssRootInit = isGSSRootInit }
}

// WithGateMetrics attaches a metrics collector; every Check call is
// recorded via RecordGateCheck.
func WithGateMetrics(c *metrics.Collector) GateOption {
	return func(gi *GateInterceptor) { gi.metrics = c }
}

// WithGateLogger attaches a structured logger.
func WithGateLogger(l *logging.Logger) GateOption {
	return func(gi *GateInterceptor) { gi.logger = l }
}

// WithGateSkip overrides which methods bypass the gate entirely (no
// wrapped body expected at all). The default exempts only the gRPC
// health-checking protocol.
func WithGateSkip(skip func(method string) bool) GateOption {
	return func(gi *GateInterceptor) { gi.skip = skip }
}

// NewGateInterceptor builds a GateInterceptor guarding exportName with
// gate.
func NewGateInterceptor(exportName string, gate *flavorgate.Gate, opts ...GateOption) *GateInterceptor {
	gi := &GateInterceptor{
		gate:       gate,
		exportName: exportName,
		skip: func(method string) bool {
			return len(method) >= len(healthCheckMethodPrefix) && method[:len(healthCheckMethodPrefix)] == healthCheckMethodPrefix
		},
	}
	for _, opt := range opts {
		opt(gi)
	}
	return gi
}

// UnaryServerInterceptor returns a grpc.UnaryServerInterceptor that
// peeks the incoming wrapped body's flavor and runs it through the
// gate before letting the handler run (spec section 4.E
// "target_export_check").
func (gi *GateInterceptor) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if gi.skip != nil && gi.skip(info.FullMethod) {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "rpcsec: missing wrapped body metadata")
		}
		wrapped := md.Get(wrappedBodyHeader)
		if len(wrapped) == 0 {
			return nil, status.Error(codes.Unauthenticated, "rpcsec: missing wrapped body metadata")
		}

		f, err := rpcpipeline.PeekFlavor([]byte(wrapped[0]))
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, "rpcsec: malformed wrapped body header")
		}

		checkReq := flavorgate.CheckRequest{
			Flavor:      f,
			ContextFini: gi.contextFini != nil && gi.contextFini(info.FullMethod),
			GSSRootInit: gi.gssRootInit != nil && gi.gssRootInit(info.FullMethod),
		}

		result := gi.gate.Check(checkReq, time.Now(), gi.install)
		if gi.metrics != nil {
			gi.metrics.RecordGateCheck(gi.exportName, result.Accept, result.Changed)
		}
		gi.logCheck(ctx, info.FullMethod, result)

		if !result.Accept {
			return nil, status.Error(codes.PermissionDenied, "rpcsec: flavor rejected: "+result.Diagnostic)
		}

		return handler(ctx, req)
	}
}

func (gi *GateInterceptor) logCheck(ctx context.Context, method string, result flavorgate.Result) {
	if gi.logger == nil {
		return
	}
	ctx = logging.WithImport(ctx, gi.exportName)
	gi.logger.InfoContext(ctx, "flavor gate check",
		"method", method,
		"accept", result.Accept,
		"changed", result.Changed,
		"diagnostic", result.Diagnostic,
	)
}
