package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Domenick1991/ticketbooking/config"
	ticketsapi "github.com/Domenick1991/ticketbooking/internal/api/tickets_service_api"
	"github.com/Domenick1991/ticketbooking/internal/service/booking"
	"github.com/Domenick1991/ticketbooking/internal/service/tickets"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const shutdownTimeout = 5 * time.Second

type Servers struct {
	grpcServer *grpc.Server
	httpServer *http.Server
	logger     zerolog.Logger
}

// NewServers builds the gRPC server for the ticket service and an HTTP server
// around router.
func NewServers(
	cfg *config.Config,
	logger zerolog.Logger,
	router http.Handler,
	ticketSvc tickets.TicketUseCase,
	bookingSvc booking.BookingUseCase,
) *Servers {
	grpcSrv := grpc.NewServer(grpc.UnaryInterceptor(ticketsapi.ChainUnaryInterceptors(
		ticketsapi.RecoveryInterceptor(logger),
		ticketsapi.LoggingInterceptor(logger),
	)))
	ticketsapi.RegisterTicketServiceServer(grpcSrv, ticketsapi.NewServer(ticketSvc, bookingSvc))

	healthSrv := health.NewServer()
	healthSrv.SetServingStatus(ticketsapi.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)
	reflection.Register(grpcSrv)

	return &Servers{
		grpcServer: grpcSrv,
		httpServer: &http.Server{
			Addr:              cfg.HTTP.Address,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Run listens on the configured addresses and blocks until ctx is canceled or
// a server fails.
func (s *Servers) Run(ctx context.Context, grpcAddr string) error {
	grpcLis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		return fmt.Errorf("listen gRPC %s: %w", grpcAddr, err)
	}
	httpLis, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		grpcLis.Close()
		return fmt.Errorf("listen HTTP %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, grpcLis, httpLis)
}

func (s *Servers) Serve(ctx context.Context, grpcLis, httpLis net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info().Str("addr", grpcLis.Addr().String()).Msg("gRPC server listening")
		return s.grpcServer.Serve(grpcLis)
	})
	g.Go(func() error {
		s.logger.Info().Str("addr", httpLis.Addr().String()).Msg("HTTP server listening")
		if err := s.httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info().Msg("shutting down servers")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.grpcServer.GracefulStop()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	})

	return g.Wait()
}
