// Package rawrcache memoizes computations in a remote key-value store.
//
// A call names a key template, optional TTL group or explicit TTL, and the
// computation to cache:
//
//	svc := rawrcache.New(cache.NewRedis(cache.RedisOptions{Addr: "localhost:6379"}),
//		rawrcache.WithSettings(rawrcache.Settings{
//			Enabled: true,
//			TTL:     ttl.Policy{Default: time.Minute, Groups: map[string]time.Duration{"low": 10 * time.Minute}},
//		}),
//	)
//
//	u, err := rawrcache.Do(ctx, svc, "user:#{id}", loadUser,
//		rawrcache.Param("id", 42), rawrcache.Group("low"))
//
// Caching is an optimization, never a dependency: when the store is
// unreachable, slow or the service is disabled, the computation runs directly
// and its result is returned uncached.
package rawrcache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/Keksclan/rawrcache/breaker"
	"github.com/Keksclan/rawrcache/cache"
	"github.com/Keksclan/rawrcache/codec"
	"github.com/Keksclan/rawrcache/contextx"
	"github.com/Keksclan/rawrcache/keytmpl"
	"github.com/Keksclan/rawrcache/metrics"
	"github.com/Keksclan/rawrcache/ratelimit"
	"github.com/Keksclan/rawrcache/retry"
	"github.com/Keksclan/rawrcache/tracing"
	"github.com/Keksclan/rawrcache/ttl"
)

// Settings is the process-wide caching configuration. A published Settings
// value is never mutated; Reload swaps in a new one.
type Settings struct {
	// Enabled is the service-wide kill switch.
	Enabled bool
	TTL     ttl.Policy
}

func (s Settings) clone() Settings {
	return Settings{Enabled: s.Enabled, TTL: s.TTL.Clone()}
}

// Service caches computations in a Store. It holds no per-call state and is
// safe for concurrent use.
type Service struct {
	store    cache.Store
	settings atomic.Pointer[Settings]

	codec   codec.Codec
	log     zerolog.Logger
	timeout time.Duration
	metrics *metrics.Metrics
	tracer  *tracing.Tracer
	breaker *breaker.Breaker
	retry   *retry.Config
	flight  *singleflight.Group
	warn    *ratelimit.Limiter
}

var errCircuitOpen = fmt.Errorf("%w: %w", cache.ErrUnavailable, breaker.ErrOpen)

// New creates a Service on top of store. A nil store yields a service that
// always computes directly.
func New(store cache.Store, opts ...Option) *Service {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	s := &Service{
		store:   store,
		codec:   cfg.codec,
		log:     cfg.logger,
		timeout: cfg.storeTimeout,
		metrics: cfg.metrics,
		tracer:  tracing.New(cfg.tracerProvider),
		retry:   cfg.retry,
		warn:    cfg.warnLimit,
	}
	if s.warn == nil {
		s.warn = ratelimit.Unlimited()
	}
	if cfg.breaker != nil {
		s.breaker = breaker.New(*cfg.breaker)
		s.breaker.OnStateChange(func(from, to breaker.State) {
			s.log.Info().Str("from", from.String()).Str("to", to.String()).Msg("cache store breaker changed state")
		})
	}
	if cfg.singleFlight {
		s.flight = &singleflight.Group{}
	}

	initial := cfg.settings.clone()
	s.settings.Store(&initial)
	return s
}

// Settings returns a copy of the current settings snapshot.
func (s *Service) Settings() Settings {
	return s.settings.Load().clone()
}

// Reload atomically replaces the settings snapshot. Calls already in flight
// finish with the snapshot they started with.
func (s *Service) Reload(next Settings) {
	snap := next.clone()
	s.settings.Store(&snap)
	s.log.Info().
		Bool("enabled", snap.Enabled).
		Dur("default_ttl", snap.TTL.Default).
		Int("groups", len(snap.TTL.Groups)).
		Msg("cache settings reloaded")
}

// Enabled reports whether the service-wide kill switch is on and a store is
// configured.
func (s *Service) Enabled() bool {
	return s != nil && s.store != nil && s.settings.Load().Enabled
}

// Evict removes the entry for the expanded key template. Removing an absent
// key succeeds. Store failures are returned wrapping ErrStoreUnavailable.
// With caching disabled Evict does nothing and returns nil.
func (s *Service) Evict(ctx context.Context, key string, opts ...CallOption) error {
	if key == "" {
		return ErrMissingKey
	}
	c := newCallConfig(opts)
	k, err := keytmpl.Format(key, c.params)
	if err != nil {
		return err
	}
	if s == nil {
		return nil
	}
	if !s.Enabled() || c.bypass || contextx.BypassFromContext(ctx) {
		s.metrics.Request(metrics.OpEvict, metrics.ResultBypass)
		return nil
	}

	ctx, span := s.tracer.Start(ctx, metrics.OpEvict, k)
	_, err = storeCall(ctx, s, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.store.Delete(ctx, k)
	})
	if err != nil {
		s.metrics.StoreError(metrics.OpDel)
		s.metrics.Request(metrics.OpEvict, metrics.ResultError)
		s.logger(ctx).Warn().Err(err).Str("key", k).Msg("cache evict failed")
		err = fmt.Errorf("rawrcache: evict %q: %w", k, err)
		span.End(metrics.ResultError, err)
		return err
	}
	s.metrics.Request(metrics.OpEvict, metrics.ResultEvicted)
	s.logger(ctx).Debug().Str("key", k).Msg("cache entry evicted")
	span.End(metrics.ResultEvicted, nil)
	return nil
}

// EvictAll evicts several key templates sharing the same call options and
// returns the joined errors.
func (s *Service) EvictAll(ctx context.Context, keys []string, opts ...CallOption) error {
	var errs []error
	for _, k := range keys {
		if err := s.Evict(ctx, k, opts...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// storeCall runs fn against the store under the breaker, the per-call timeout
// and the retry policy. Every error it returns wraps ErrStoreUnavailable.
// Failures caused by the caller's own context ending are not held against
// the store.
func storeCall[T any](ctx context.Context, s *Service, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if s.breaker != nil && !s.breaker.Allow() {
		return zero, errCircuitOpen
	}

	attempt := func(ctx context.Context) (T, error) {
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		v, err := fn(ctx)
		return v, asUnavailable(err)
	}

	var (
		v   T
		err error
	)
	if s.retry != nil {
		v, err = retry.Do(ctx, *s.retry, attempt)
		err = asUnavailable(err)
	} else {
		v, err = attempt(ctx)
	}
	if s.breaker != nil {
		if err != nil && ctx.Err() != nil {
			s.breaker.Release()
		} else {
			s.breaker.Record(err)
		}
	}
	return v, err
}

func asUnavailable(err error) error {
	if err == nil || errors.Is(err, cache.ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", cache.ErrUnavailable, err)
}

// logger returns the service logger enriched with the request ID from ctx.
func (s *Service) logger(ctx context.Context) *zerolog.Logger {
	l := s.log
	if id := contextx.RequestIDFromContext(ctx); id != "" {
		l = l.With().Str("request_id", id).Logger()
	}
	return &l
}

// warnStore logs a swallowed store failure, rate limited.
func (s *Service) warnStore(ctx context.Context, op, key string, err error) {
	ok, suppressed := s.warn.AllowWithSuppressed()
	if !ok {
		return
	}
	ev := s.logger(ctx).Warn().Err(err).Str("op", op).Str("key", key)
	if suppressed > 0 {
		ev = ev.Int64("suppressed", suppressed)
	}
	ev.Msg("cache store unavailable, computing directly")
}
