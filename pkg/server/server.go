// Package server provides the demo gRPC server that pkg/transport/grpcsec's
// client interceptor dials against.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/clusterfs/rpcsec/pkg/config"
	sectls "github.com/clusterfs/rpcsec/pkg/security/tls"
)

// ShutdownTimeout bounds how long Shutdown waits for in-flight RPCs to
// drain before forcing the listener closed.
const ShutdownTimeout = 10 * time.Second

// Server is the demo gRPC target: just enough of a peer (health
// service, optional TLS, graceful shutdown) for the client-side
// security layer to have something real to dial. It carries no
// accept/authorize logic of its own — that is secpolicy.ServerOps,
// which this module leaves as an unimplemented interface (spec.md
// scopes the server side out). The narrower per-target flavor gate
// (package flavorgate, spec section 4.E) is a distinct concern and
// is wired in via a grpc.ServerOption, see
// pkg/transport/grpcsec.GateInterceptor.
type Server struct {
	transportCfg config.TransportConfig
	tlsCfg       config.TLSConfig

	grpcServer *grpc.Server
	health     *health.Server

	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates a demo server bound to transportCfg's listen
// address. Additional grpc.ServerOption values (e.g. the flavor-gate
// unary interceptor) are applied alongside the health service.
func NewServer(transportCfg config.TransportConfig, tlsCfg config.TLSConfig, opts ...grpc.ServerOption) (*Server, error) {
	serverOpts := append([]grpc.ServerOption(nil), opts...)

	if tlsCfg.Enabled {
		creds, err := serverTLSCreds(tlsCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
		serverOpts = append(serverOpts, grpc.Creds(creds))
	}

	grpcServer := grpc.NewServer(serverOpts...)
	healthSrv := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	return &Server{
		transportCfg: transportCfg,
		tlsCfg:       tlsCfg,
		grpcServer:   grpcServer,
		health:       healthSrv,
		shutdownChan: make(chan struct{}),
	}, nil
}

// serverTLSCreds adapts pkg/security/tls.Config into server-side
// transport credentials. mTLS is never enabled here: config.TLSConfig
// has no mtls section.
func serverTLSCreds(cfg config.TLSConfig) (credentials.TransportCredentials, error) {
	secCfg := &sectls.Config{
		Enabled:        cfg.Enabled,
		CertFile:       cfg.CertFile,
		KeyFile:        cfg.KeyFile,
		MinVersion:     cfg.MinVersion,
		CipherSuites:   cfg.CipherSuites,
		ReloadInterval: cfg.ReloadInterval,
	}
	tlsConfig, err := secCfg.ToTLSConfig()
	if err != nil {
		return nil, err
	}
	if tlsConfig == nil {
		return insecure.NewCredentials(), nil
	}
	return credentials.NewTLS(tlsConfig), nil
}

// GRPCServer exposes the underlying *grpc.Server so callers can
// register additional services before Start.
func (s *Server) GRPCServer() *grpc.Server { return s.grpcServer }

// Start listens on the configured address and serves until ctx is
// canceled, a SIGINT/SIGTERM arrives, the server errors, or Shutdown
// is called directly.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	lis, err := net.Listen("tcp", s.transportCfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.transportCfg.ListenAddress, err)
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting demo gRPC server",
			"address", s.transportCfg.ListenAddress,
			"tls_enabled", s.tlsCfg.Enabled,
		)
		if err := s.grpcServer.Serve(lis); err != nil {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		slog.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully stops the server, forcing a hard stop if ctx is
// canceled or ShutdownTimeout elapses first.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

		shutdownCtx, cancel := context.WithTimeout(ctx, ShutdownTimeout)
		defer cancel()

		stopped := make(chan struct{})
		go func() {
			s.grpcServer.GracefulStop()
			close(stopped)
		}()

		select {
		case <-stopped:
			slog.Info("demo gRPC server stopped")
		case <-shutdownCtx.Done():
			slog.Warn("graceful shutdown timed out, forcing stop")
			s.grpcServer.Stop()
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
	})
	return nil
}

// IsRunning reports whether the server is currently serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Health reports whether the server considers itself live.
func (s *Server) Health() error {
	if !s.IsRunning() {
		return fmt.Errorf("server is not running")
	}
	return nil
}

// TriggerShutdown requests shutdown from outside Start's caller,
// e.g. an admin command.
func (s *Server) TriggerShutdown() {
	select {
	case <-s.shutdownChan:
	default:
		close(s.shutdownChan)
	}
}
