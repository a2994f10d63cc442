package server_test

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/Keksclan/rawrcache"
	"github.com/Keksclan/rawrcache/cache"
	"github.com/Keksclan/rawrcache/contextx"
	"github.com/Keksclan/rawrcache/interceptors"
	"github.com/Keksclan/rawrcache/metrics"
	"github.com/Keksclan/rawrcache/ping"
	"github.com/Keksclan/rawrcache/policy"
	"github.com/Keksclan/rawrcache/server"
	"github.com/Keksclan/rawrcache/ttl"
)

func start(t *testing.T, h ping.Handler, m *metrics.Metrics) *grpc.ClientConn {
	t.Helper()

	store, err := cache.NewMemory(1_000)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	svc := rawrcache.New(store,
		rawrcache.WithSettings(rawrcache.Settings{Enabled: true, TTL: ttl.Policy{Default: time.Minute}}),
		rawrcache.WithMetrics(m),
	)
	rules := policy.NewResolver(
		policy.Rule("ping").Exact(ping.FullMethod).Policy(policy.Policy{Key: "ping:#{value}"}),
	)

	srv := server.New(svc, rules, server.WithMetrics(m))
	ping.Register(srv.GRPC(), h)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.GRPC().Serve(lis) }()
	t.Cleanup(srv.GRPC().Stop)

	conn, err := grpc.NewClient("passthrough:///bufconn",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestServer_CachesPing(t *testing.T) {
	m, err := metrics.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	var calls atomic.Int32
	conn := start(t, ping.HandlerFunc(func(_ context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
		calls.Add(1)
		return wrapperspb.String("pong: " + req.GetValue()), nil
	}), m)

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()
	for range 3 {
		resp, err := ping.Call(ctx, conn, "hello")
		if err != nil {
			t.Fatalf("Ping failed: %v", err)
		}
		if resp.GetValue() != "pong: hello" {
			t.Fatalf("got %q", resp.GetValue())
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("handler called %d times, want 1", got)
	}

	rec := httptest.NewRecorder()
	srv := server.New(nil, nil, server.WithMetrics(m))
	srv.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `rawrcache_requests_total{op="do",result="hit"} 2`) {
		t.Fatalf("hit counter missing:\n%s", rec.Body.String())
	}
}

func TestServer_PropagatesRequestID(t *testing.T) {
	var seen atomic.Value
	conn := start(t, ping.HandlerFunc(func(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
		seen.Store(contextx.RequestIDFromContext(ctx))
		return req, nil
	}), nil)

	ctx := metadata.AppendToOutgoingContext(t.Context(), interceptors.RequestIDHeader, "req-7")
	if _, err := ping.Call(ctx, conn, "x"); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	if got, _ := seen.Load().(string); got != "req-7" {
		t.Fatalf("request id = %q, want %q", got, "req-7")
	}
}
