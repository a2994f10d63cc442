package rawrcache

import (
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/Keksclan/rawrcache/breaker"
	"github.com/Keksclan/rawrcache/codec"
	"github.com/Keksclan/rawrcache/metrics"
	"github.com/Keksclan/rawrcache/ratelimit"
	"github.com/Keksclan/rawrcache/retry"
)

// Option configures a Service.
type Option func(*config)

// WithSettings sets the initial settings snapshot. Without it the service
// starts enabled with no default TTL and no groups.
func WithSettings(s Settings) Option {
	return func(c *config) {
		c.settings = s
	}
}

// WithLogger sets the logger used for store failures, unknown groups and
// serialization errors. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithCodec replaces the default tagged codec.
func WithCodec(cd codec.Codec) Option {
	return func(c *config) {
		if cd != nil {
			c.codec = cd
		}
	}
}

// WithStoreTimeout bounds each store call. A store call that exceeds it is
// treated as the store being unavailable. Zero disables the bound.
func WithStoreTimeout(d time.Duration) Option {
	return func(c *config) {
		c.storeTimeout = max(d, 0)
	}
}

// WithMetrics records Prometheus metrics for every call.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// WithTracerProvider records a span per Do and Evict call. Without it the
// global otel provider is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *config) {
		c.tracerProvider = tp
	}
}

// WithBreaker skips the store entirely while it keeps failing, sending
// callers straight to direct computation.
func WithBreaker(cfg breaker.Config) Option {
	return func(c *config) {
		c.breaker = &cfg
	}
}

// WithRetry retries failed store calls with backoff. When cfg.Retryable is
// nil only ErrStoreUnavailable is retried. The compute function is never
// retried.
func WithRetry(cfg retry.Config) Option {
	return func(c *config) {
		if cfg.Retryable == nil {
			cfg.Retryable = retry.On(ErrStoreUnavailable)
		}
		c.retry = &cfg
	}
}

// WithSingleFlight makes concurrent misses on the same key share one
// computation and one store write. Without it every concurrent miss computes
// and writes independently and the last write wins.
func WithSingleFlight() Option {
	return func(c *config) {
		c.singleFlight = true
	}
}

// WithWarnLimit limits store-failure warnings to rps per second with the
// given burst. Suppressed warnings are counted in the next logged one.
func WithWarnLimit(rps float64, burst int) Option {
	return func(c *config) {
		c.warnLimit = ratelimit.NewLimiter(rps, burst)
	}
}
