package grpc

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dmitrijs2005/lexbridge/internal/logging"
)

// ServiceName is the health service name reported alongside the overall ("")
// status.
const ServiceName = "lexbridge.API"

// Pinger reports whether a dependency is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// GRPCServer serves grpc.health.v1.Health so orchestrators can check the
// backend. The status follows the database: SERVING while it answers pings.
type GRPCServer struct {
	address  string
	db       Pinger
	interval time.Duration
	health   *health.Server
	logger   logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, db Pinger, interval time.Duration) *GRPCServer {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &GRPCServer{
		address:  a,
		db:       db,
		interval: interval,
		health:   health.NewServer(),
		logger:   l.With("module", "grpc_server"),
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := s.newServer()

	s.refresh(ctx)
	go s.watch(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)
	return srv
}

// watch re-checks the database every interval until ctx is done.
func (s *GRPCServer) watch(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

func (s *GRPCServer) refresh(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if s.db != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := s.db.PingContext(pingCtx)
		cancel()
		if err != nil {
			s.logger.Warn(ctx, "database ping failed", "error", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}
