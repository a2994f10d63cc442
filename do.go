package rawrcache

import (
	"context"
	"reflect"
	"slices"
	"time"

	"github.com/Keksclan/rawrcache/codec"
	"github.com/Keksclan/rawrcache/contextx"
	"github.com/Keksclan/rawrcache/keytmpl"
	"github.com/Keksclan/rawrcache/metrics"
	"github.com/Keksclan/rawrcache/tracing"
	"github.com/Keksclan/rawrcache/ttl"
)

// Do returns the cached value for the expanded key template, or runs compute,
// caches its result and returns it.
//
//   - An empty key fails with ErrMissingKey before anything else happens.
//   - When caching is disabled (service-wide, with Bypass, or with
//     contextx.WithBypass) compute runs directly and the store is untouched.
//   - An unbound placeholder fails with ErrMissingParameter; compute does not
//     run.
//   - A hit is decoded and returned without running compute or refreshing
//     the TTL. An undecodable entry is logged and treated as a miss.
//   - On a miss compute runs; its error is returned unchanged and nothing is
//     stored. A successful result is encoded and written with the resolved
//     TTL.
//   - Store failures are logged and swallowed: the computed value is returned
//     uncached. Encoding failures are logged the same way.
func Do[T any](ctx context.Context, s *Service, key string, compute func(context.Context) (T, error), opts ...CallOption) (T, error) {
	var zero T
	if key == "" {
		return zero, ErrMissingKey
	}
	if compute == nil {
		return zero, ErrNilCompute
	}

	c := newCallConfig(opts)
	if s == nil || s.store == nil {
		return compute(ctx)
	}
	settings := s.settings.Load()
	if !settings.Enabled || c.bypass || contextx.BypassFromContext(ctx) {
		s.metrics.Request(metrics.OpDo, metrics.ResultBypass)
		return runCompute(ctx, s, compute)
	}

	k, err := keytmpl.Format(key, c.params)
	if err != nil {
		return zero, err
	}

	ctx, span := s.tracer.Start(ctx, metrics.OpDo, k)

	got, err := storeCall(ctx, s, func(ctx context.Context) (lookup, error) {
		v, ok, err := s.store.Get(ctx, k)
		return lookup{data: v, hit: ok}, err
	})
	if err != nil {
		s.metrics.StoreError(metrics.OpGet)
		s.warnStore(ctx, metrics.OpGet, k, err)
		span.Event("store.get.failed", err)

		v, cerr := runCompute(ctx, s, compute)
		s.metrics.Request(metrics.OpDo, metrics.ResultFallback)
		span.End(metrics.ResultFallback, cerr)
		return v, cerr
	}

	if got.hit {
		var out T
		if derr := s.codec.Unmarshal(got.data, &out); derr != nil {
			s.metrics.StoreError(metrics.OpCodec)
			s.logger(ctx).Error().Err(derr).Str("key", k).Msg("cached value cannot be decoded, recomputing")
			span.Event("codec.decode.failed", derr)
		} else {
			if c.reattach != nil {
				if rerr := c.reattach(ctx, &out); rerr != nil {
					span.End(metrics.ResultError, rerr)
					return zero, rerr
				}
			}
			s.metrics.Request(metrics.OpDo, metrics.ResultHit)
			s.logger(ctx).Debug().Str("key", k).Msg("cache hit")
			span.End(metrics.ResultHit, nil)
			return out, nil
		}
	}

	v, err := miss(ctx, s, settings, k, c, span, compute)
	if err != nil {
		s.metrics.Request(metrics.OpDo, metrics.ResultError)
		span.End(metrics.ResultError, err)
		return v, err
	}
	s.metrics.Request(metrics.OpDo, metrics.ResultMiss)
	span.End(metrics.ResultMiss, nil)
	return v, nil
}

// lookup is the result of a store Get.
type lookup struct {
	data []byte
	hit  bool
}

// miss computes the value and writes it to the store. With single-flight
// enabled concurrent misses on k share one computation and one write.
func miss[T any](
	ctx context.Context,
	s *Service,
	settings *Settings,
	k string,
	c *callConfig,
	span *tracing.Span,
	compute func(context.Context) (T, error),
) (T, error) {
	load := func() (T, error) {
		v, err := runCompute(ctx, s, compute)
		if err != nil {
			return v, err
		}
		put(ctx, s, settings, k, c, span, v)
		return v, nil
	}
	if s.flight == nil {
		return load()
	}

	res, err, shared := s.flight.Do(k, func() (any, error) {
		return load()
	})
	if shared {
		s.logger(ctx).Debug().Str("key", k).Msg("cache miss shared with a concurrent caller")
	}
	v, _ := res.(T)
	return v, err
}

// put encodes v and writes it under k. Failures are logged, never returned.
func put[T any](ctx context.Context, s *Service, settings *Settings, k string, c *callConfig, span *tracing.Span, v T) {
	data, err := encode(s.codec, v)
	if err != nil {
		s.metrics.StoreError(metrics.OpCodec)
		s.logger(ctx).Error().Err(err).Str("key", k).Msg("computed value cannot be cached")
		span.Event("codec.encode.failed", err)
		return
	}

	group := c.group
	if group == "" {
		group = contextx.GroupFromContext(ctx)
	}
	expire, src := settings.TTL.Resolve(c.ttl, group)
	if src == ttl.SourceUnknownGroup {
		s.logger(ctx).Warn().Str("group", group).Str("key", k).Msg("unknown cache group, using default TTL")
	}
	span.SetGroup(group)
	span.SetTTL(expire)

	_, err = storeCall(ctx, s, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.store.Set(ctx, k, data, expire)
	})
	if err != nil {
		s.metrics.StoreError(metrics.OpSet)
		s.warnStore(ctx, metrics.OpSet, k, err)
		span.Event("store.set.failed", err)
		return
	}
	s.logger(ctx).Debug().Str("key", k).Dur("ttl", expire).Str("ttl_source", src.String()).Msg("cache entry stored")
}

// encode marshals v. Interface-typed values are passed by pointer so the
// codec records the concrete type and a hit can decode back into T.
func encode[T any](c codec.Codec, v T) ([]byte, error) {
	if reflect.TypeFor[T]().Kind() == reflect.Interface {
		return c.Marshal(&v)
	}
	return c.Marshal(v)
}

func runCompute[T any](ctx context.Context, s *Service, compute func(context.Context) (T, error)) (T, error) {
	start := time.Now()
	v, err := compute(ctx)
	s.metrics.Compute(time.Since(start))
	return v, err
}

// Wrap returns fn with caching applied under the key template and options.
// It is the function-wrapping form of Do:
//
//	getConfig := rawrcache.Wrap(svc, "config:global", loadConfig, rawrcache.Group("high"))
//	cfg, err := getConfig(ctx)
func Wrap[T any](s *Service, key string, fn func(context.Context) (T, error), opts ...CallOption) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		return Do(ctx, s, key, fn, opts...)
	}
}

// WrapArg is Wrap for functions taking one argument. params derives the key
// parameters from the argument:
//
//	getUser := rawrcache.WrapArg(svc, "user:#{id}", loadUser,
//		func(id int64) rawrcache.Params { return rawrcache.Params{"id": strconv.FormatInt(id, 10)} })
func WrapArg[A, T any](
	s *Service,
	key string,
	fn func(context.Context, A) (T, error),
	params func(A) Params,
	opts ...CallOption,
) func(context.Context, A) (T, error) {
	return func(ctx context.Context, a A) (T, error) {
		callOpts := slices.Clip(opts)
		if params != nil {
			callOpts = append(callOpts, Args(params(a)))
		}
		return Do(ctx, s, key, func(ctx context.Context) (T, error) {
			return fn(ctx, a)
		}, callOpts...)
	}
}
