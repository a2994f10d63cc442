// Package ping provides a minimal Ping RPC for health checks and demos. It is
// registered through a hand-written [grpc.ServiceDesc] and uses the
// well-known wrapper messages, so no protobuf code generation is required.
package ping

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// FullMethod is the full gRPC method name of Ping, for policy rules.
const FullMethod = "/rawr.Ping/Ping"

// Handler is the interface that a Ping service implementation must satisfy.
type Handler interface {
	Ping(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error)

func (f HandlerFunc) Ping(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	return f(ctx, req)
}

// DefaultHandler returns a Handler that answers "pong: " plus the request.
func DefaultHandler() Handler {
	return HandlerFunc(func(_ context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
		return wrapperspb.String("pong: " + req.GetValue()), nil
	})
}

// ServiceDesc is the grpc.ServiceDesc for the rawr.Ping service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: "rawr.Ping",
	HandlerType: (*Handler)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Ping",
			Handler:    pingHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rawr/ping.proto",
}

func pingHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(wrapperspb.StringValue)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Handler).Ping(ctx, req)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: FullMethod,
	}
	handler := func(ctx context.Context, r any) (any, error) {
		return srv.(Handler).Ping(ctx, r.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, req, info, handler)
}

// Register registers a Ping service implementation on the given gRPC server.
func Register(s grpc.ServiceRegistrar, h Handler) {
	s.RegisterService(&ServiceDesc, h)
}

// Call invokes Ping over conn.
func Call(ctx context.Context, conn grpc.ClientConnInterface, msg string, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := conn.Invoke(ctx, FullMethod, wrapperspb.String(msg), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
