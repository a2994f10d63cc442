package interceptors

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"

	"github.com/Keksclan/rawrcache"
	"github.com/Keksclan/rawrcache/policy"
)

// CacheUnary returns a unary server interceptor that caches responses of
// methods whose policy has a Key and evicts the policy's Evict templates after
// a method returns without error.
//
// Key templates may reference #{method}, #{request} and any top-level scalar
// request field by its proto name:
//
//	policy.Rule("users").Exact("/users.v1.Users/Get").
//		Policy(policy.Policy{Key: "user:#{id}", Group: "low"})
//	policy.Rule("users-write").Exact("/users.v1.Users/Update").
//		Policy(policy.Policy{Evict: []string{"user:#{id}"}})
//
// Methods without a matching rule, and requests that are not protobuf
// messages, go straight to the handler. Failed evictions are logged through
// zerolog.Ctx and do not fail the call.
func CacheUnary(svc *rawrcache.Service, r *policy.Resolver) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		_, pol, ok := r.Resolve(info.FullMethod)
		if !ok || pol == nil || (!pol.Cacheable() && len(pol.Evict) == 0) {
			return handler(ctx, req)
		}
		msg, ok := req.(proto.Message)
		if !ok {
			return handler(ctx, req)
		}
		params, err := requestParams(info.FullMethod, msg)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("method", info.FullMethod).Msg("request cannot be keyed, skipping cache")
			return handler(ctx, req)
		}

		if !pol.Cacheable() {
			resp, err := handler(ctx, req)
			if err == nil {
				evict(ctx, svc, info.FullMethod, pol.Evict, params)
			}
			return resp, err
		}

		opts := []rawrcache.CallOption{rawrcache.Args(params)}
		if pol.Group != "" {
			opts = append(opts, rawrcache.Group(pol.Group))
		}
		if pol.TTL > 0 {
			opts = append(opts, rawrcache.TTL(pol.TTL))
		}

		resp, err := rawrcache.Do(ctx, svc, pol.Key, func(ctx context.Context) (proto.Message, error) {
			out, err := handler(ctx, req)
			if err != nil {
				return nil, err
			}
			m, ok := out.(proto.Message)
			if !ok {
				return nil, status.Errorf(codes.Internal, "%s returned %T, not a protobuf message", info.FullMethod, out)
			}
			return m, nil
		}, opts...)
		if err != nil {
			if errors.Is(err, rawrcache.ErrMissingParameter) {
				return nil, status.Error(codes.Internal, fmt.Sprintf("cache key for %s: %v", info.FullMethod, err))
			}
			return nil, err
		}
		if len(pol.Evict) > 0 {
			evict(ctx, svc, info.FullMethod, pol.Evict, params)
		}
		return resp, nil
	}
}

func evict(ctx context.Context, svc *rawrcache.Service, method string, keys []string, params rawrcache.Params) {
	if err := svc.EvictAll(ctx, keys, rawrcache.Args(params)); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("method", method).Msg("cache eviction after write failed")
	}
}
