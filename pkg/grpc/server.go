// Package grpc runs the service's gRPC listener: the standard health service
// (grpc.health.v1.Health) driven by dependency probes, with recovery, logging
// and Prometheus interceptors.
//
//	srv := grpc.New()
//	go srv.Watch(ctx, 10*time.Second, database.Ping)
//	err := srv.Serve(lis)
package grpc

import (
	"context"
	"net"
	"runtime/debug"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/metrics"
)

// ─── Prometheus metrics ───────────────────────────────────────────────────────

var (
	handledTotal = metrics.NewCounter("grpc", "server_handled_total",
		"Total number of gRPC calls completed by method and code.",
		[]string{"grpc_method", "grpc_code"})

	handlingSeconds = metrics.NewHistogram("grpc", "server_handling_seconds",
		"Histogram of gRPC response latency in seconds.",
		[]float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		[]string{"grpc_method"})
)

// ─── Interceptors ─────────────────────────────────────────────────────────────

func recoveryInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("grpc: panic recovered",
				"method", info.FullMethod, "panic", r, "stack", string(debug.Stack()))
			err = status.Errorf(codes.Internal, "internal server error")
		}
	}()
	return handler(ctx, req)
}

// observeInterceptor logs each unary call and records its metrics.
func observeInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	dur := time.Since(start)

	code := status.Code(err)
	handledTotal.WithLabelValues(info.FullMethod, code.String()).Inc()
	handlingSeconds.WithLabelValues(info.FullMethod).Observe(dur.Seconds())
	logger.Debug("grpc: request", "method", info.FullMethod, "duration_ms", dur.Milliseconds(), "code", code.String())
	return resp, err
}

// ─── Server ───────────────────────────────────────────────────────────────────

// Probe reports whether a dependency is usable.
type Probe func(ctx context.Context) error

// Server wraps a grpc.Server with its health service.
type Server struct {
	srv    *grpc.Server
	health *health.Server
}

// New builds the server. Health starts as SERVING until a probe says otherwise.
func New(opts ...grpc.ServerOption) *Server {
	opts = append([]grpc.ServerOption{
		grpc.ChainUnaryInterceptor(recoveryInterceptor, observeInterceptor),
		grpc.MaxRecvMsgSize(4 * 1024 * 1024),
		grpc.MaxSendMsgSize(4 * 1024 * 1024),
	}, opts...)

	s := &Server{srv: grpc.NewServer(opts...), health: health.NewServer()}
	grpc_health_v1.RegisterHealthServer(s.srv, s.health)
	reflection.Register(s.srv)
	return s
}

// Serve blocks serving lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	logger.Info("grpc: server starting", "addr", lis.Addr().String())
	if err := s.srv.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return err
	}
	return nil
}

// SetServing flips the overall health status.
func (s *Server) SetServing(ok bool) {
	st := grpc_health_v1.HealthCheckResponse_SERVING
	if !ok {
		st = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", st)
}

// Check runs every probe once and updates the health status.
func (s *Server) Check(ctx context.Context, probes ...Probe) {
	for _, p := range probes {
		if err := p(ctx); err != nil {
			logger.Warn("grpc: health probe failed", "error", err)
			s.SetServing(false)
			return
		}
	}
	s.SetServing(true)
}

// Watch runs Check every interval until ctx ends.
func (s *Server) Watch(ctx context.Context, interval time.Duration, probes ...Probe) {
	s.Check(ctx, probes...)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Check(ctx, probes...)
		}
	}
}

// Stop marks the service NOT_SERVING and waits for in-flight RPCs.
func (s *Server) Stop() {
	logger.Info("grpc: server shutting down")
	s.health.Shutdown()
	s.srv.GracefulStop()
}
