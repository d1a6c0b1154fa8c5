/*
Package grpcsec adapts the client-side security layer to gRPC.

An Interceptor binds one pkg/sec.Import to a gRPC ClientConn's unary
call path: every call resolves the import's current Sec, mints or
reuses a CliCtx for the caller's credential, drives pkg/sec.Refresh to
install an up-to-date context, and runs the request body through
pkg/rpcpipeline.WrapRequest before the call leaves the process. The
reply's wrapped bytes, returned as gRPC header metadata, go through
pkg/rpcpipeline.UnwrapReply before the call is reported as complete.

Basic usage:

	imp := sec.NewImport("mds-0001")
	if _, err := sec.CreateSec(imp, registry, nil, f, secpolicy.PartClient, gcInterval, 0); err != nil {
		return err
	}

	credFunc := func(ctx context.Context) secpolicy.Cred {
		return secpolicy.Cred{UID: 1000, GID: 1000}
	}
	ic := grpcsec.NewInterceptor(imp, credFunc, grpcsec.WithLogger(logger), grpcsec.WithMetrics(collector))

	conn, err := grpc.NewClient(target,
		grpc.WithUnaryInterceptor(ic.UnaryClientInterceptor()),
		grpc.WithTransportCredentials(creds),
	)

A peer that does not attach the rpcsec-wrapped-reply header (for
example a plain health-check server) will cause every wrapped call to
fail with rpcpipeline.ErrNoReply; grpcsec expects to be dialed against
a peer that participates in the framing described in this package's
top-level comment.
*/
package grpcsec
