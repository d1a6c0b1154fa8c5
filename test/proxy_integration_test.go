//go:build integration

package test

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"

	"github.com/clusterfs/rpcsec/pkg/config"
	"github.com/clusterfs/rpcsec/pkg/flavor"
	"github.com/clusterfs/rpcsec/pkg/sec"
	"github.com/clusterfs/rpcsec/pkg/secpolicy"
	"github.com/clusterfs/rpcsec/pkg/secpolicy/nullpolicy"
	"github.com/clusterfs/rpcsec/pkg/server"
	"github.com/clusterfs/rpcsec/pkg/transport/grpcsec"
)

// Metadata keys pkg/transport/grpcsec carries the wrapped request body
// and wrapped reply on. A peer that wants to participate in the
// client-side security layer's framing attaches the reply header
// itself; this echo handler stands in for that peer.
const (
	wrappedBodyHeader  = "rpcsec-wrapped-body"
	wrappedReplyHeader = "rpcsec-wrapped-reply"
)

type echoHealthServer struct {
	grpc_health_v1.UnimplementedHealthServer
}

func (echoHealthServer) Check(ctx context.Context, req *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	if vals := md.Get(wrappedBodyHeader); len(vals) > 0 {
		body := []byte(vals[0])
		if len(body) >= 8 {
			body = body[8:]
		}
		_ = grpc.SetHeader(ctx, metadata.Pairs(wrappedReplyHeader, string(body)))
	}
	return &grpc_health_v1.HealthCheckResponse{Status: grpc_health_v1.HealthCheckResponse_SERVING}, nil
}

// TestProxyIntegration drives the whole client-side stack end to end:
// the reference pkg/server.Server target (extended here with an echo
// health handler standing in for a peer that wraps its own replies),
// a registered null-policy Sec bound through pkg/sec, and a
// pkg/transport/grpcsec interceptor wrapping/unwrapping every call.
func TestProxyIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	addr := "127.0.0.1:18090"
	srv, err := server.NewServer(config.TransportConfig{ListenAddress: addr}, config.TLSConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	grpc_health_v1.RegisterHealthServer(srv.GRPCServer(), echoHealthServer{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Start(ctx) }()

	if !waitForServing(t, addr, 5*time.Second) {
		t.Fatal("server did not become ready")
	}

	registry := secpolicy.NewRegistry()
	if err := registry.Register(nullpolicy.New()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	f := flavor.Flavor{Policy: flavor.PolicyNull, Service: flavor.ServiceNull}
	imp := sec.NewImport("mds-0001")
	s, err := sec.CreateSec(imp, registry, nil, f, secpolicy.PartClient, 0, 0)
	if err != nil {
		t.Fatalf("CreateSec: %v", err)
	}
	defer s.Put()

	credFunc := func(ctx context.Context) secpolicy.Cred {
		return secpolicy.Cred{UID: 1000, GID: 1000}
	}
	ic := grpcsec.NewInterceptor(imp, credFunc, grpcsec.WithRefreshTimeout(5*time.Second))

	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(ic.UnaryClientInterceptor()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	client := grpc_health_v1.NewHealthClient(conn)

	t.Run("wrapped health check round trip", func(t *testing.T) {
		callCtx, callCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer callCancel()

		resp, err := client.Check(callCtx, &grpc_health_v1.HealthCheckRequest{Service: "probe"})
		if err != nil {
			t.Fatalf("Check: %v", err)
		}
		if resp.Status != grpc_health_v1.HealthCheckResponse_SERVING {
			t.Fatalf("unexpected status: %v", resp.Status)
		}
	})

	cancel()
	select {
	case <-serveErr:
	case <-time.After(5 * time.Second):
		t.Error("server did not shut down within 5 seconds")
	}
}
