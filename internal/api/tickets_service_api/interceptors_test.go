package tickets_service_api

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestChainUnaryInterceptors(t *testing.T) {
	var order []string
	mk := func(name string) grpc.UnaryServerInterceptor {
		return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
			order = append(order, name)
			return handler(ctx, req)
		}
	}

	chained := ChainUnaryInterceptors(mk("first"), mk("second"))
	resp, err := chained(context.Background(), "req", &grpc.UnaryServerInfo{}, func(ctx context.Context, req any) (any, error) {
		order = append(order, "handler")
		return "resp", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "resp", resp)
	assert.Equal(t, []string{"first", "second", "handler"}, order)
}

func TestLoggingInterceptor(t *testing.T) {
	var buf bytes.Buffer
	interceptor := LoggingInterceptor(zerolog.New(&buf))
	info := &grpc.UnaryServerInfo{FullMethod: "/" + ServiceName + "/Reserve"}

	_, err := interceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return nil, status.Error(codes.Aborted, "tickets not available")
	})

	assert.Equal(t, codes.Aborted, status.Code(err))
	assert.Contains(t, buf.String(), `"method":"/ticketbooking.v1.TicketService/Reserve"`)
	assert.Contains(t, buf.String(), `"code":"Aborted"`)
}

func TestRecoveryInterceptor(t *testing.T) {
	interceptor := RecoveryInterceptor(zerolog.Nop())

	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/x"}, func(context.Context, any) (any, error) {
		panic("boom")
	})

	assert.Equal(t, codes.Internal, status.Code(err))
}
