package interceptors

import (
	"context"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"

	"github.com/Keksclan/rawrcache/contextx"
)

// LoggerUnary returns a unary server interceptor that stores log, enriched
// with the method and request ID, in the context for zerolog.Ctx. Install it
// after RequestIDUnary.
func LoggerUnary(log zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		lc := log.With().Str("method", info.FullMethod)
		if id := contextx.RequestIDFromContext(ctx); id != "" {
			lc = lc.Str("request_id", id)
		}
		l := lc.Logger()
		return handler(l.WithContext(ctx), req)
	}
}
