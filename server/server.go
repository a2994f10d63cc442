// Package server builds a gRPC server whose unary responses are cached by a
// rawrcache.Service according to method policies.
package server

import (
	"net/http"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"

	"github.com/Keksclan/rawrcache"
	"github.com/Keksclan/rawrcache/interceptors"
	"github.com/Keksclan/rawrcache/policy"
)

// Server is a thin wrapper around a gRPC server.
type Server struct {
	grpcServer *grpc.Server
	cfg        config
}

// New creates a Server. Unary calls pass through, in order: request ID,
// context logger, panic recovery, response cache, then any interceptors added
// with WithUnaryInterceptor.
func New(svc *rawrcache.Service, rules *policy.Resolver, opts ...Option) *Server {
	cfg := config{log: zerolog.Nop()}
	for _, o := range opts {
		o(&cfg)
	}

	chain := append([]grpc.UnaryServerInterceptor{
		interceptors.RequestIDUnary(),
		interceptors.LoggerUnary(cfg.log),
		interceptors.RecoveryUnary(),
		interceptors.CacheUnary(svc, rules),
	}, cfg.unaryInterceptors...)

	serverOpts := append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(chain...)}, cfg.serverOptions...)
	return &Server{
		grpcServer: grpc.NewServer(serverOpts...),
		cfg:        cfg,
	}
}

// GRPC returns the underlying *grpc.Server so callers can register services.
func (s *Server) GRPC() *grpc.Server {
	return s.grpcServer
}

// MetricsHandler serves the cache metrics registry, or the default
// Prometheus registry when WithMetrics was not used.
func (s *Server) MetricsHandler() http.Handler {
	return s.cfg.metrics.Handler()
}
