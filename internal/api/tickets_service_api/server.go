package tickets_service_api

import (
	"context"
	"time"

	"github.com/Domenick1991/ticketbooking/internal/domain"
	"github.com/Domenick1991/ticketbooking/internal/service/booking"
	"github.com/Domenick1991/ticketbooking/internal/service/tickets"
	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"
)

// Server implements TicketServiceServer on top of the booking services.
type Server struct {
	tickets  tickets.TicketUseCase
	bookings booking.BookingUseCase
}

func NewServer(tickets tickets.TicketUseCase, bookings booking.BookingUseCase) *Server {
	return &Server{tickets: tickets, bookings: bookings}
}

func (s *Server) ListTickets(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var filter *domain.TicketType
	if raw := stringField(req, "ticketType"); raw != "" {
		ticketType, err := domain.ParseTicketType(raw)
		if err != nil {
			return nil, toStatus(err)
		}
		filter = &ticketType
	}

	list, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, toStatus(err)
	}

	items := make([]any, 0, len(list))
	for _, t := range list {
		items = append(items, toPBTicket(t))
	}
	return newStruct(map[string]any{"tickets": items})
}

func (s *Server) Reserve(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var ids []string
	if v, ok := req.GetFields()["ticketIds"]; ok {
		for _, item := range v.GetListValue().GetValues() {
			ids = append(ids, item.GetStringValue())
		}
	}

	token, err := s.bookings.Reserve(ctx, ids)
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(map[string]any{
		"paymentToken": token,
		"message":      "The tickets are reserved for booking. Please proceed payment for booking",
	})
}

func (s *Server) ResolvePayment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	token := stringField(req, "paymentToken")
	if _, err := uuid.Parse(token); err != nil {
		return nil, toStatus(domain.InvalidRequest("payment token must be a uuid"))
	}
	outcome, err := domain.ParseOutcome(stringField(req, "paymentStatus"))
	if err != nil {
		return nil, toStatus(err)
	}

	status, err := s.bookings.ResolvePayment(ctx, token, outcome)
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(map[string]any{
		"status":  string(status),
		"message": "The tickets are " + string(status) + ".",
	})
}

// toPBTicket keeps the price as decimal text so no precision is lost in a double.
func toPBTicket(t domain.Ticket) map[string]any {
	return map[string]any{
		"id":        t.ID,
		"name":      t.Name,
		"type":      string(t.Type),
		"status":    string(t.Status),
		"price":     t.Price.String(),
		"currency":  t.Currency,
		"createdAt": t.CreatedAt.UTC().Format(time.RFC3339),
		"updatedAt": t.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func stringField(s *structpb.Struct, name string) string {
	return s.GetFields()[name].GetStringValue()
}

func newStruct(fields map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, toStatus(err)
	}
	return out, nil
}

var _ TicketServiceServer = (*Server)(nil)
