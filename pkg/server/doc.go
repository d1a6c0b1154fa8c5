// Package server provides the demo gRPC server used as the dial
// target for pkg/transport/grpcsec's client-side interceptor.
//
// # Architecture
//
// This package is deliberately thin: it is a stand-in peer, not a
// security-bearing component. Accepting and authorizing a wrapped
// request (secpolicy.ServerOps) is out of this module's scope (see
// SPEC_FULL.md's Component A) — the server here only proves there is
// a real gRPC listener on the other end of the wire for the client
// layer to exercise against. It:
//   - Listens on a configured TCP address
//   - Registers grpc-go's own health service (grpc_health_v1)
//   - Optionally terminates TLS via pkg/security/tls
//   - Handles graceful shutdown and OS signals (SIGTERM, SIGINT)
//
// # Basic Usage
//
//	srv, err := server.NewServer(cfg.Transport, cfg.Security.TLS)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Start(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// Application services are registered before Start via GRPCServer:
//
//	myservicepb.RegisterMyServiceServer(srv.GRPCServer(), myImpl)
//
// # Graceful Shutdown
//
// The server handles graceful shutdown automatically on SIGTERM/SIGINT,
// or it can be triggered programmatically:
//
//	if err := srv.Shutdown(context.Background()); err != nil {
//	    log.Error("shutdown error", "error", err)
//	}
//
// Shutdown marks the health service NOT_SERVING, then waits up to
// ShutdownTimeout for in-flight RPCs to finish via GracefulStop before
// forcing a hard Stop.
//
// # TLS Support
//
// TLS is configured the same way pkg/security/tls configures it
// everywhere else in this module:
//
//	security:
//	  tls:
//	    enabled: true
//	    cert_file: "/etc/rpcsec/certs/server.pem"
//	    key_file: "/etc/rpcsec/certs/server-key.pem"
//	    min_version: "1.3"
package server
