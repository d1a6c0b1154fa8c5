// Package grpcsec wires the client-side security layer (package sec,
// package rpcpipeline) into a gRPC client connection as a unary
// interceptor. It is the one place in the module where Sec/CliCtx
// lifecycle, the wrap/unwrap pipeline, and a real RPC transport meet.
//
// The interceptor does not replace gRPC's own wire codec. A request's
// wrapped bytes (the signed or sealed body rpcpipeline.WrapRequest
// produces) travel as outbound request metadata alongside the normal
// protobuf payload; the reply's wrapped bytes travel back the same
// way and are handed to rpcpipeline.UnwrapReply before the RPC is
// reported as complete. That keeps every existing protobuf service
// definition usable unmodified while still exercising Sign/Seal and
// Verify/Unseal on every call.
package grpcsec

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/clusterfs/rpcsec/pkg/flavor"
	"github.com/clusterfs/rpcsec/pkg/rpcpipeline"
	"github.com/clusterfs/rpcsec/pkg/sec"
	"github.com/clusterfs/rpcsec/pkg/secpolicy"
	"github.com/clusterfs/rpcsec/pkg/telemetry/logging"
	"github.com/clusterfs/rpcsec/pkg/telemetry/metrics"
)

// wrappedBodyHeader and wrappedReplyHeader name the gRPC metadata keys
// the wrapped body travels under. gRPC lowercases metadata keys, so
// these are already in their wire form.
const (
	wrappedBodyHeader  = "rpcsec-wrapped-body"
	wrappedReplyHeader = "rpcsec-wrapped-reply"
)

// RefreshTimeout bounds how long Refresh may block acquiring an
// up-to-date CliCtx before a call fails with sec.ErrWouldBlock's
// blocking cousin (spec section 4.C "refresh" uses a caller-supplied
// timeout; this is this interceptor's default).
const RefreshTimeout = 30 * time.Second

// Interceptor drives the security layer for every unary call made on
// a ClientConn it is installed against.
type Interceptor struct {
	imp      *sec.Import
	credFunc func(ctx context.Context) secpolicy.Cred
	metrics  *metrics.Collector
	logger   *logging.Logger
	timeout  time.Duration
}

// Option configures an Interceptor.
type Option func(*Interceptor)

// WithMetrics attaches a metrics collector; each failed call is recorded
// through RecordCodecError with the failing step as its class (for
// example "refresh" or "unwrap"). Successful calls are not counted.
func WithMetrics(c *metrics.Collector) Option {
	return func(i *Interceptor) { i.metrics = c }
}

// WithLogger attaches a structured logger.
func WithLogger(l *logging.Logger) Option {
	return func(i *Interceptor) { i.logger = l }
}

// WithRefreshTimeout overrides RefreshTimeout.
func WithRefreshTimeout(d time.Duration) Option {
	return func(i *Interceptor) { i.timeout = d }
}

// NewInterceptor builds an Interceptor bound to imp. credFunc derives
// the caller credential for a given call's context; callers that run
// every RPC as a single fixed uid/gid can ignore ctx and return a
// constant secpolicy.Cred.
func NewInterceptor(imp *sec.Import, credFunc func(ctx context.Context) secpolicy.Cred, opts ...Option) *Interceptor {
	i := &Interceptor{
		imp:      imp,
		credFunc: credFunc,
		timeout:  RefreshTimeout,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// UnaryClientInterceptor returns a grpc.UnaryClientInterceptor that
// wraps req's protobuf body under the import's currently bound Sec
// before invoking the call, and verifies/unseals the reply's wrapped
// body before returning (spec section 4.D "wrap_request" /
// "unwrap_reply").
func (i *Interceptor) UnaryClientInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		s, err := sec.ImportSecValidateGet(i.imp)
		if err != nil {
			i.recordError("no_sec")
			return err
		}
		defer s.Put()

		cred := i.credFunc(ctx)
		body, err := encodeBody(req)
		if err != nil {
			return err
		}

		pipeReq := rpcpipeline.NewRequest(i.imp, s.Flavor(), cred, body)

		cliCtx, err := s.GetMyCtx(cred)
		if err != nil {
			i.recordError("get_ctx")
			return err
		}
		pipeReq.SetCtx(cliCtx)
		defer cliCtx.Put()

		if err := sec.Refresh(pipeReq, i.timeout); err != nil {
			i.recordError("refresh")
			return err
		}

		wrapped, err := rpcpipeline.WrapRequest(pipeReq)
		if err != nil {
			i.recordError("wrap")
			return err
		}

		outCtx := metadata.AppendToOutgoingContext(ctx, wrappedBodyHeader, string(wrapped))
		i.logCall(outCtx, method, s.Flavor())

		var header metadata.MD
		callOpts := append(append([]grpc.CallOption(nil), opts...), grpc.Header(&header))
		if err := invoker(outCtx, method, req, reply, cc, callOpts...); err != nil {
			i.recordError("invoke")
			return err
		}

		repBytes := header.Get(wrappedReplyHeader)
		if len(repBytes) == 0 {
			i.recordError("no_reply_header")
			return rpcpipeline.ErrNoReply
		}
		// FrameReply puts the framing header at the start of framed.
		framed := rpcpipeline.FrameReply(s.Flavor(), []byte(repBytes[0]))
		pipeReq.SetReplyBytes(framed, 0)

		if err := rpcpipeline.UnwrapReply(pipeReq); err != nil {
			i.recordError("unwrap")
			return err
		}

		return nil
	}
}

func (i *Interceptor) recordError(class string) {
	if i.metrics != nil {
		i.metrics.RecordCodecError(class)
	}
}

func (i *Interceptor) logCall(ctx context.Context, method string, f flavor.Flavor) {
	if i.logger == nil {
		return
	}
	ctx = logging.WithImport(ctx, i.imp.Name)
	if name, err := flavor.Name(f); err == nil {
		ctx = logging.WithFlavor(ctx, name)
	}
	i.logger.InfoContext(ctx, "rpc call wrapped", "method", method)
}
