// Package tickets_service_api exposes the ticket operations over gRPC. The
// service has no generated stubs: requests and responses are
// google.protobuf.Struct values with the same field names as the HTTP API.
package tickets_service_api

import (
	"context"

	"github.com/Domenick1991/ticketbooking/internal/domain"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "ticketbooking.v1.TicketService"

type TicketServiceServer interface {
	ListTickets(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Reserve(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ResolvePayment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

func RegisterTicketServiceServer(s grpc.ServiceRegistrar, srv TicketServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TicketServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListTickets", Handler: unaryHandler("ListTickets", TicketServiceServer.ListTickets)},
		{MethodName: "Reserve", Handler: unaryHandler("Reserve", TicketServiceServer.Reserve)},
		{MethodName: "ResolvePayment", Handler: unaryHandler("ResolvePayment", TicketServiceServer.ResolvePayment)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ticketbooking/v1/tickets.proto",
}

type unaryMethod func(TicketServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, method unaryMethod) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	fullMethod := "/" + ServiceName + "/" + name
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return method(srv.(TicketServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return method(srv.(TicketServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Client calls TicketService over an existing connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) ListTickets(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListTickets", req, opts...)
}

func (c *Client) Reserve(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Reserve", req, opts...)
}

func (c *Client) ResolvePayment(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ResolvePayment", req, opts...)
}

func (c *Client) invoke(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// toStatus maps booking errors to gRPC codes. Storage details are not sent to
// the caller.
func toStatus(err error) error {
	switch domain.KindOf(err) {
	case domain.KindInvalidRequest:
		return status.Error(codes.InvalidArgument, err.Error())
	case domain.KindNotFound:
		return status.Error(codes.NotFound, err.Error())
	case domain.KindConflict:
		return status.Error(codes.Aborted, err.Error())
	case domain.KindStorageFailure:
		return status.Error(codes.Unavailable, "storage unavailable")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
