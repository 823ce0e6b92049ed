package grpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/dmitrijs2005/lexbridge/internal/logging"
)

type fakePinger struct {
	err error
}

func (p *fakePinger) PingContext(context.Context) error { return p.err }

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:0", logging.Discard(), &fakePinger{}, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on graceful stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:99999", logging.Discard(), nil, 0)
	err := srv.Run(context.Background())
	require.Error(t, err)
}

func dialHealth(t *testing.T, s *GRPCServer) healthpb.HealthClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := s.newServer()
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return healthpb.NewHealthClient(conn)
}

func TestHealth_FollowsDatabase(t *testing.T) {
	db := &fakePinger{}
	s := NewGRPCServer("", logging.Discard(), db, time.Hour)
	client := dialHealth(t, s)
	ctx := context.Background()

	s.refresh(ctx)
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	db.err = errors.New("connection refused")
	s.refresh(ctx)
	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}
