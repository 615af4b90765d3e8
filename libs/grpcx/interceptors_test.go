package grpcx

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

func TestUnaryServerRequestIDInterceptor(t *testing.T) {
	interceptor := UnaryServerRequestIDInterceptor()
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(RequestIDMetadataKey, "req-42"))

	var seen string
	_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, func(ctx context.Context, _ any) (any, error) {
		seen = RequestIDFromContext(ctx)
		return nil, nil
	})
	if err != nil {
		t.Fatalf("interceptor returned error: %v", err)
	}
	if seen != "req-42" {
		t.Fatalf("expected req-42, got %q", seen)
	}
}

func TestUnaryServerRequestIDInterceptor_Generates(t *testing.T) {
	interceptor := UnaryServerRequestIDInterceptor()
	var seen string
	_, _ = interceptor(context.Background(), nil, &grpc.UnaryServerInfo{}, func(ctx context.Context, _ any) (any, error) {
		seen = RequestIDFromContext(ctx)
		return nil, nil
	})
	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("expected generated id, got %q", seen)
	}
}
