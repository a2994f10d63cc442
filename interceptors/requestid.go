package interceptors

import (
	"context"

	"github.com/oklog/ulid/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/Keksclan/rawrcache/contextx"
)

// RequestIDHeader is the metadata key a client may set to propagate its own
// request ID.
const RequestIDHeader = "x-request-id"

// newRequestID returns a ULID, so generated IDs sort by creation time.
func newRequestID() string {
	return ulid.Make().String()
}

// ensureRequestID returns ctx carrying a request ID, taken from the incoming
// metadata when present and generated otherwise.
func ensureRequestID(ctx context.Context) context.Context {
	if contextx.RequestIDFromContext(ctx) != "" {
		return ctx
	}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(RequestIDHeader); len(v) > 0 && v[0] != "" {
			return contextx.WithRequestID(ctx, v[0])
		}
	}
	return contextx.WithRequestID(ctx, newRequestID())
}

// RequestIDUnary returns a unary server interceptor that ensures a request ID
// is present in the context. The caching service adds it to its log lines.
func RequestIDUnary() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		_ *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		return handler(ensureRequestID(ctx), req)
	}
}
