package server

import (
	"github.com/rs/zerolog"
	"google.golang.org/grpc"

	"github.com/Keksclan/rawrcache/metrics"
)

type config struct {
	log               zerolog.Logger
	metrics           *metrics.Metrics
	unaryInterceptors []grpc.UnaryServerInterceptor
	serverOptions     []grpc.ServerOption
}

// Option configures a Server.
type Option func(*config)

// WithLogger sets the logger handlers and the cache interceptor reach through
// zerolog.Ctx.
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) {
		c.log = l
	}
}

// WithMetrics makes MetricsHandler serve m's registry. Pass the same value to
// rawrcache.WithMetrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// WithUnaryInterceptor appends a unary server interceptor. Appended
// interceptors run after the cache interceptor, so they are skipped on a hit.
func WithUnaryInterceptor(i grpc.UnaryServerInterceptor) Option {
	return func(c *config) {
		c.unaryInterceptors = append(c.unaryInterceptors, i)
	}
}

// WithServerOption passes o through to grpc.NewServer.
func WithServerOption(o grpc.ServerOption) Option {
	return func(c *config) {
		c.serverOptions = append(c.serverOptions, o)
	}
}
