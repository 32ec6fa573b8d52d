package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/ogurasousui/orgrecords/internal/adapters/grpc/handler"
	"github.com/ogurasousui/orgrecords/internal/platform/metrics"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Options はサーバーに組み込む横断的な処理の設定です。
type Options struct {
	Logger         logrus.FieldLogger
	Metrics        *metrics.RPC
	RateLimitRPS   float64
	RateLimitBurst int
}

// Server は gRPC サーバーのライフサイクルを管理します。
type Server struct {
	listenAddr string
	grpcServer *grpc.Server
	health     *health.Server
}

// New は指定されたアドレスで待ち受ける gRPC サーバーを構築します。
func New(listenAddr string, svc handler.OrgRecordsServer, opts Options, grpcOpts ...grpc.ServerOption) *Server {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	var interceptors []grpc.UnaryServerInterceptor
	if opts.RateLimitRPS > 0 {
		interceptors = append(interceptors, rateLimitInterceptor(rate.NewLimiter(rate.Limit(opts.RateLimitRPS), opts.RateLimitBurst)))
	}
	interceptors = append(interceptors, loggingInterceptor(log))
	if opts.Metrics != nil {
		interceptors = append(interceptors, metricsInterceptor(opts.Metrics))
	}
	interceptors = append(interceptors, recoveryInterceptor(log))

	grpcOpts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(interceptors...)}, grpcOpts...)
	srv := grpc.NewServer(grpcOpts...)
	handler.RegisterOrgRecordsServer(srv, svc)

	healthSrv := health.NewServer()
	healthSrv.SetServingStatus(handler.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, healthSrv)

	return &Server{
		listenAddr: listenAddr,
		grpcServer: srv,
		health:     healthSrv,
	}
}

// Run はサーバーを起動し、コンテキストがキャンセルされると GracefulStop します。
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.listenAddr, err)
	}
	return s.Serve(ctx, lis)
}

// Serve は lis で待ち受けます。コンテキストがキャンセルされると GracefulStop します。
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	go func() {
		<-ctx.Done()
		s.GracefulStop()
	}()

	if err := s.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	return nil
}

// GracefulStop はヘルスチェックを NOT_SERVING にしてからサーバーを安全に停止します。
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
