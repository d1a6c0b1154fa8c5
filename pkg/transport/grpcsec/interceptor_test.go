package grpcsec

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"

	"github.com/clusterfs/rpcsec/internal/testsec"
	"github.com/clusterfs/rpcsec/pkg/flavor"
	"github.com/clusterfs/rpcsec/pkg/secpolicy"
)

// echoHealthServer answers Check by echoing the wrapped request body
// metadata back as the wrapped reply header, standing in for a real
// peer's own wrap of its reply (this module's null test policy is a
// pass-through, so echoing the client's bytes back exercises the same
// Verify/Unseal path a real peer's distinct reply would).
type echoHealthServer struct {
	grpc_health_v1.UnimplementedHealthServer
}

func (echoHealthServer) Check(ctx context.Context, req *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	if vals := md.Get(wrappedBodyHeader); len(vals) > 0 {
		// Strip the outer framing header the interceptor attached;
		// the pipeline re-adds an equivalent one on the reply side.
		body := []byte(vals[0])
		if len(body) >= 8 {
			body = body[8:]
		}
		_ = grpc.SetHeader(ctx, metadata.Pairs(wrappedReplyHeader, string(body)))
	}
	return &grpc_health_v1.HealthCheckResponse{Status: grpc_health_v1.HealthCheckResponse_SERVING}, nil
}

func dialTestServer(t *testing.T, ic *Interceptor) (grpc_health_v1.HealthClient, func()) {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	srv := grpc.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, echoHealthServer{})
	go srv.Serve(lis)

	conn, err := grpc.NewClient(lis.Addr().String(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(ic.UnaryClientInterceptor()),
	)
	if err != nil {
		srv.Stop()
		t.Fatalf("dial: %v", err)
	}

	return grpc_health_v1.NewHealthClient(conn), func() {
		conn.Close()
		srv.Stop()
	}
}

func TestUnaryClientInterceptorWrapsAndUnwraps(t *testing.T) {
	f := flavor.Flavor{Policy: flavor.PolicyNull, Service: flavor.ServiceNull}
	h, err := testsec.NewHarness("test-import", flavor.PolicyNull, f)
	if err != nil {
		t.Fatalf("NewHarness: %v", err)
	}

	credFunc := func(ctx context.Context) secpolicy.Cred {
		return secpolicy.Cred{UID: 1000, GID: 1000}
	}
	ic := NewInterceptor(h.Import, credFunc, WithRefreshTimeout(5*time.Second))

	client, closeFn := dialTestServer(t, ic)
	defer closeFn()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: "probe"})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if resp.Status != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Fatalf("unexpected status: %v", resp.Status)
	}
}

// silentHealthServer answers Check successfully but never attaches a
// wrapped reply header (or trailer), exercising the missing-reply
// failure path.
type silentHealthServer struct {
	grpc_health_v1.UnimplementedHealthServer
}

func (silentHealthServer) Check(ctx context.Context, req *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	return &grpc_health_v1.HealthCheckResponse{Status: grpc_health_v1.HealthCheckResponse_SERVING}, nil
}

func TestUnaryClientInterceptorFailsWithoutReplyTrailer(t *testing.T) {
	f := flavor.Flavor{Policy: flavor.PolicyNull, Service: flavor.ServiceNull}
	h, err := testsec.NewHarness("test-import", flavor.PolicyNull, f)
	if err != nil {
		t.Fatalf("NewHarness: %v", err)
	}

	credFunc := func(ctx context.Context) secpolicy.Cred {
		return secpolicy.Cred{UID: 1000, GID: 1000}
	}
	ic := NewInterceptor(h.Import, credFunc)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := grpc.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, silentHealthServer{})
	go srv.Serve(lis)
	defer srv.Stop()

	conn, err := grpc.NewClient(lis.Addr().String(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(ic.UnaryClientInterceptor()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	client := grpc_health_v1.NewHealthClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: "probe"}); err == nil {
		t.Fatal("expected an error when the peer never echoes a wrapped reply header")
	}
}
