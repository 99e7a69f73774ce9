package bootstrap

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/Domenick1991/ticketbooking/config"
	"github.com/Domenick1991/ticketbooking/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type stubTickets struct{}

func (stubTickets) List(context.Context, *domain.TicketType) ([]domain.Ticket, error) {
	return []domain.Ticket{}, nil
}

type stubBookings struct{}

func (stubBookings) Reserve(context.Context, []string) (string, error) { return "", nil }

func (stubBookings) ResolvePayment(context.Context, string, domain.BookingStatus) (domain.BookingStatus, error) {
	return "", nil
}

func (stubBookings) ExpireStale(context.Context, time.Duration) ([]string, error) { return nil, nil }

func TestServers_ServeAndShutdown(t *testing.T) {
	router := http.NewServeMux()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	cfg := &config.Config{}
	servers := NewServers(cfg, zerolog.Nop(), router, stubTickets{}, stubBookings{})

	grpcLis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	httpLis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- servers.Serve(ctx, grpcLis, httpLis) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + httpLis.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	conn, err := grpc.NewClient(grpcLis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()
	health, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: "ticketbooking.v1.TicketService"})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, health.GetStatus())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("servers did not stop")
	}
}

func TestServers_RunFailsOnBadAddress(t *testing.T) {
	cfg := &config.Config{HTTP: config.HTTPConfig{Address: "127.0.0.1:0"}}
	servers := NewServers(cfg, zerolog.Nop(), http.NewServeMux(), stubTickets{}, stubBookings{})

	err := servers.Run(context.Background(), "256.0.0.1:99999")

	assert.Error(t, err)
}
