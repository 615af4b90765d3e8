package grpcserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/runtime"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

func TestHealthFollowsReadiness(t *testing.T) {
	var failing atomic.Bool
	check := runtime.ReadyCheck{Name: "db", Check: func(context.Context) error {
		if failing.Load() {
			return errors.New("down")
		}
		return nil
	}}
	srv := New(slog.New(slog.NewTextHandler(io.Discard, nil)), "scheduling-service", time.Hour, check)

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)

	callCtx, callCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer callCancel()
	resp, err := client.Check(callCtx, &healthpb.HealthCheckRequest{Service: "scheduling-service"})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("status = %s", resp.GetStatus())
	}

	failing.Store(true)
	if got := srv.Refresh(context.Background()); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("refresh = %s", got)
	}
	resp, err = client.Check(callCtx, &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("status = %s", resp.GetStatus())
	}
}
