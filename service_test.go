package rawrcache_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Keksclan/rawrcache"
	"github.com/Keksclan/rawrcache/breaker"
	"github.com/Keksclan/rawrcache/codec"
	"github.com/Keksclan/rawrcache/contextx"
	"github.com/Keksclan/rawrcache/metrics"
	"github.com/Keksclan/rawrcache/retry"
	"github.com/Keksclan/rawrcache/ttl"
)

type profile struct {
	ID   int
	Name string
	Tags []string
}

func testSettings() rawrcache.Settings {
	return rawrcache.Settings{
		Enabled: true,
		TTL: ttl.Policy{
			Default: 30 * time.Second,
			Groups:  map[string]time.Duration{"low": 600 * time.Second, "pinned": ttl.NeverExpire},
		},
	}
}

func newService(store *fakeStore, opts ...rawrcache.Option) *rawrcache.Service {
	return rawrcache.New(store, append([]rawrcache.Option{rawrcache.WithSettings(testSettings())}, opts...)...)
}

func TestDo_HitDoesNotCompute(t *testing.T) {
	store := newFakeStore()
	want := profile{ID: 42, Name: "ada", Tags: []string{"admin"}}
	data, err := codec.Tagged{}.Marshal(want)
	require.NoError(t, err)
	store.put("user:42", data)

	svc := newService(store)
	compute, calls := counter(profile{Name: "fresh"})

	got, err := rawrcache.Do(t.Context(), svc, "user:#{id}", compute, rawrcache.Param("id", 42))
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, int32(0), calls.Load(), "compute must not run on a hit")
	assert.Equal(t, int32(0), store.sets.Load(), "a hit must not refresh the entry")
}

func TestDo_MissComputesAndStores(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)
	want := profile{ID: 7, Name: "grace"}
	compute, calls := counter(want)

	got, err := rawrcache.Do(t.Context(), svc, "user:#{id}", compute,
		rawrcache.Param("id", 7), rawrcache.Group("low"))
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, int32(1), calls.Load())

	data, expire, ok := store.entry("user:7")
	require.True(t, ok, "expected entry stored under the expanded key")
	assert.Equal(t, 600*time.Second, expire)

	stored, err := codec.Decode[profile](codec.Tagged{}, data)
	require.NoError(t, err)
	assert.Equal(t, want, stored)

	// Second call is a hit.
	_, err = rawrcache.Do(t.Context(), svc, "user:#{id}", compute, rawrcache.Param("id", 7))
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDo_TTLPrecedence(t *testing.T) {
	tests := []struct {
		name string
		opts []rawrcache.CallOption
		ctx  func(context.Context) context.Context
		want time.Duration
	}{
		{name: "explicit beats group", opts: []rawrcache.CallOption{rawrcache.TTL(5 * time.Second), rawrcache.Group("low")}, want: 5 * time.Second},
		{name: "group", opts: []rawrcache.CallOption{rawrcache.Group("low")}, want: 600 * time.Second},
		{name: "unknown group uses default", opts: []rawrcache.CallOption{rawrcache.Group("missing")}, want: 30 * time.Second},
		{name: "default", want: 30 * time.Second},
		{name: "never expire group", opts: []rawrcache.CallOption{rawrcache.Group("pinned")}, want: ttl.NeverExpire},
		{name: "group from context", ctx: func(ctx context.Context) context.Context { return contextx.WithGroup(ctx, "low") }, want: 600 * time.Second},
		{
			name: "call group beats context group",
			opts: []rawrcache.CallOption{rawrcache.Group("pinned")},
			ctx:  func(ctx context.Context) context.Context { return contextx.WithGroup(ctx, "low") },
			want: ttl.NeverExpire,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			svc := newService(store)
			ctx := t.Context()
			if tt.ctx != nil {
				ctx = tt.ctx(ctx)
			}
			compute, _ := counter("v")
			_, err := rawrcache.Do(ctx, svc, "k", compute, tt.opts...)
			require.NoError(t, err)

			_, expire, ok := store.entry("k")
			require.True(t, ok)
			assert.Equal(t, tt.want, expire)
		})
	}
}

func TestDo_NothingConfiguredNeverExpires(t *testing.T) {
	store := newFakeStore()
	svc := rawrcache.New(store)
	compute, _ := counter(1)

	_, err := rawrcache.Do(t.Context(), svc, "k", compute)
	require.NoError(t, err)
	_, expire, _ := store.entry("k")
	assert.Equal(t, ttl.NeverExpire, expire)
}

func TestDo_StoreDownFallsBack(t *testing.T) {
	store := newFakeStore()
	store.failGet.Store(true)
	store.failSet.Store(true)
	svc := newService(store)
	compute, calls := counter("computed")

	for range 3 {
		got, err := rawrcache.Do(t.Context(), svc, "k", compute)
		require.NoError(t, err)
		assert.Equal(t, "computed", got)
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestDo_WriteFailureStillReturnsValue(t *testing.T) {
	store := newFakeStore()
	store.failSet.Store(true)
	svc := newService(store)
	compute, calls := counter("v")

	got, err := rawrcache.Do(t.Context(), svc, "k", compute)
	require.NoError(t, err)
	assert.Equal(t, "v", got)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(1), store.sets.Load())
}

func TestDo_SlowStoreTimesOut(t *testing.T) {
	store := newFakeStore()
	store.block.Store(true)
	svc := newService(store, rawrcache.WithStoreTimeout(20*time.Millisecond))
	compute, calls := counter("v")

	start := time.Now()
	got, err := rawrcache.Do(t.Context(), svc, "k", compute)
	require.NoError(t, err)
	assert.Equal(t, "v", got)
	assert.Equal(t, int32(1), calls.Load())
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestDo_EvictThenMiss(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)
	compute, calls := counter(profile{ID: 1})
	ctx := t.Context()

	for range 2 {
		_, err := rawrcache.Do(ctx, svc, "user:#{id}", compute, rawrcache.Param("id", 1))
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), calls.Load())

	require.NoError(t, svc.Evict(ctx, "user:#{id}", rawrcache.Param("id", 1)))

	_, err := rawrcache.Do(ctx, svc, "user:#{id}", compute, rawrcache.Param("id", 1))
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "evicted key must behave as a miss")
}

func TestDo_DisabledNeverTouchesStore(t *testing.T) {
	store := newFakeStore()
	data, _ := codec.Tagged{}.Marshal("cached")
	store.put("k", data)

	s := testSettings()
	s.Enabled = false
	svc := rawrcache.New(store, rawrcache.WithSettings(s))
	compute, calls := counter("fresh")

	for range 3 {
		got, err := rawrcache.Do(t.Context(), svc, "k", compute)
		require.NoError(t, err)
		assert.Equal(t, "fresh", got)
	}
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, int32(0), store.gets.Load())
	assert.Equal(t, int32(0), store.sets.Load())
	assert.False(t, svc.Enabled())
}

func TestDo_CallAndContextBypass(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)
	compute, calls := counter("v")

	_, err := rawrcache.Do(t.Context(), svc, "k", compute, rawrcache.Bypass())
	require.NoError(t, err)
	_, err = rawrcache.Do(contextx.WithBypass(t.Context()), svc, "k", compute)
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, int32(0), store.gets.Load())
	assert.Equal(t, int32(0), store.sets.Load())
}

func TestDo_MissingKeyRejected(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)
	compute, calls := counter("v")

	_, err := rawrcache.Do(t.Context(), svc, "", compute)
	require.ErrorIs(t, err, rawrcache.ErrMissingKey)
	assert.Equal(t, int32(0), calls.Load())
	assert.Equal(t, int32(0), store.gets.Load())

	require.ErrorIs(t, svc.Evict(t.Context(), ""), rawrcache.ErrMissingKey)
	assert.Equal(t, int32(0), store.dels.Load())
}

func TestDo_MissingParameterFailsFast(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)
	compute, calls := counter("v")

	_, err := rawrcache.Do(t.Context(), svc, "user:#{id}", compute, rawrcache.Param("other", 1))
	require.ErrorIs(t, err, rawrcache.ErrMissingParameter)
	assert.Equal(t, int32(0), calls.Load())
	assert.Equal(t, int32(0), store.gets.Load())
}

func TestDo_ComputeErrorPropagatesUnchanged(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)
	boom := errors.New("database exploded")

	_, err := rawrcache.Do(t.Context(), svc, "k", func(context.Context) (int, error) {
		return 0, boom
	})
	require.Equal(t, boom, err)
	_, _, ok := store.entry("k")
	assert.False(t, ok, "failed computations must not be cached")
}

func TestDo_UnserializableResultStillReturned(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)

	fn, err := rawrcache.Do(t.Context(), svc, "k", func(context.Context) (func() string, error) {
		return func() string { return "live" }, nil
	})
	require.NoError(t, err)
	require.NotNil(t, fn)
	assert.Equal(t, "live", fn())
	assert.Equal(t, int32(0), store.sets.Load())
}

func TestDo_InterfaceResultHits(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)
	compute, calls := counter[any](map[string]int{"a": 1})

	for range 3 {
		got, err := rawrcache.Do(t.Context(), svc, "scores", compute)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"a": 1}, got)
	}
	assert.Equal(t, int32(1), calls.Load(), "only the first call may compute")
	assert.Equal(t, int32(3), store.gets.Load())
	assert.Equal(t, int32(1), store.sets.Load())
}

type liveHandle struct {
	Name   string
	Closed chan struct{}
}

func TestDo_ResultWithLiveResourceNotStored(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)
	h := liveHandle{Name: "db", Closed: make(chan struct{})}
	compute, calls := counter(h)

	for range 2 {
		got, err := rawrcache.Do(t.Context(), svc, "handle", compute)
		require.NoError(t, err)
		assert.Equal(t, h.Closed, got.Closed, "the computed value is returned as is")
	}
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, int32(0), store.sets.Load())
}

func TestDo_CorruptEntryRecomputed(t *testing.T) {
	store := newFakeStore()
	store.put("k", []byte("not an envelope"))
	svc := newService(store)
	compute, calls := counter(99)

	got, err := rawrcache.Do(t.Context(), svc, "k", compute)
	require.NoError(t, err)
	assert.Equal(t, 99, got)
	assert.Equal(t, int32(1), calls.Load())

	data, _, _ := store.entry("k")
	v, err := codec.Decode[int](codec.Tagged{}, data)
	require.NoError(t, err)
	assert.Equal(t, 99, v)
}

func TestDo_ReattachRunsOnHitOnly(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)
	compute, _ := counter(profile{ID: 3, Name: "detached"})

	var hooked atomic.Int32
	reattach := rawrcache.Reattach(func(_ context.Context, v any) error {
		hooked.Add(1)
		p := v.(*profile)
		p.Name = "attached"
		return nil
	})

	first, err := rawrcache.Do(t.Context(), svc, "p", compute, reattach)
	require.NoError(t, err)
	assert.Equal(t, "detached", first.Name)
	assert.Equal(t, int32(0), hooked.Load())

	second, err := rawrcache.Do(t.Context(), svc, "p", compute, reattach)
	require.NoError(t, err)
	assert.Equal(t, "attached", second.Name)
	assert.Equal(t, int32(1), hooked.Load())
}

func TestDo_ConcurrentMissesComputeIndependently(t *testing.T) {
	const n = 4
	store := newFakeStore()
	svc := newService(store)

	var entered sync.WaitGroup
	entered.Add(n)
	release := make(chan struct{})
	go func() {
		entered.Wait()
		close(release)
	}()

	var calls atomic.Int32
	compute := func(context.Context) (int, error) {
		calls.Add(1)
		entered.Done()
		select {
		case <-release:
		case <-time.After(5 * time.Second):
		}
		return 1, nil
	}

	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = rawrcache.Do(t.Context(), svc, "hot", compute)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(n), calls.Load())
}

func TestDo_SingleFlightSharesMiss(t *testing.T) {
	const n = 10
	store := newFakeStore()
	svc := newService(store, rawrcache.WithSingleFlight())

	var calls atomic.Int32
	compute := func(context.Context) (string, error) {
		calls.Add(1)
		time.Sleep(100 * time.Millisecond)
		return "shared", nil
	}

	start := make(chan struct{})
	results := make([]string, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			results[i], _ = rawrcache.Do(t.Context(), svc, "hot", compute)
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, "shared", r)
	}
}

func TestDo_BreakerSkipsStore(t *testing.T) {
	store := newFakeStore()
	store.failGet.Store(true)
	store.failSet.Store(true)
	svc := newService(store, rawrcache.WithBreaker(breaker.Config{
		FailureThreshold:   2,
		OpenTimeout:        time.Hour,
		HalfOpenMaxSuccess: 1,
	}))
	compute, calls := counter("v")

	for range 5 {
		got, err := rawrcache.Do(t.Context(), svc, "k", compute)
		require.NoError(t, err)
		assert.Equal(t, "v", got)
	}
	assert.Equal(t, int32(5), calls.Load())
	// The first miss fails on Get and Set, which trips the breaker.
	assert.Equal(t, int32(1), store.gets.Load(), "open breaker must keep calls away from the store")
	assert.Equal(t, int32(1), store.sets.Load())
}

func TestDo_CallerCancellationDoesNotTripBreaker(t *testing.T) {
	store := newFakeStore()
	store.block.Store(true)
	svc := newService(store, rawrcache.WithBreaker(breaker.Config{
		FailureThreshold:   1,
		OpenTimeout:        time.Hour,
		HalfOpenMaxSuccess: 1,
	}))
	compute, calls := counter("v")

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	for range 3 {
		got, err := rawrcache.Do(ctx, svc, "k", compute)
		require.NoError(t, err)
		assert.Equal(t, "v", got)
	}
	assert.Equal(t, int32(3), store.gets.Load())

	store.block.Store(false)
	_, err := rawrcache.Do(t.Context(), svc, "k", compute)
	require.NoError(t, err)
	assert.Equal(t, int32(4), store.gets.Load(), "breaker must stay closed after caller cancellations")
	_, _, ok := store.entry("k")
	assert.True(t, ok)
	assert.Equal(t, int32(4), calls.Load())
}

func TestDo_LogsCarryRequestID(t *testing.T) {
	store := newFakeStore()
	store.failGet.Store(true)
	var logs bytes.Buffer
	svc := newService(store, rawrcache.WithLogger(zerolog.New(&logs)))

	ctx := contextx.WithRequestID(t.Context(), "req-7")
	_, err := rawrcache.Do(ctx, svc, "k", func(context.Context) (string, error) { return "v", nil })
	require.NoError(t, err)

	assert.Contains(t, logs.String(), `"request_id":"req-7"`)
	assert.Contains(t, logs.String(), "cache store unavailable")
}

func TestDo_RetryRecoversFlakyStore(t *testing.T) {
	store := newFakeStore()
	data, _ := codec.Tagged{}.Marshal("cached")
	store.put("k", data)
	store.failGetOnce.Store(1)

	svc := newService(store, rawrcache.WithRetry(retry.Config{
		MaxAttempts: 2,
		BaseDelay:   time.Millisecond,
	}))
	compute, calls := counter("fresh")

	got, err := rawrcache.Do(t.Context(), svc, "k", compute)
	require.NoError(t, err)
	assert.Equal(t, "cached", got)
	assert.Equal(t, int32(0), calls.Load())
	assert.Equal(t, int32(2), store.gets.Load())
}

func TestReload_SwapsSettings(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)
	compute, _ := counter("v")

	next := testSettings()
	next.TTL.Groups["low"] = time.Minute
	svc.Reload(next)
	// Mutating the value passed to Reload must not leak into the service.
	next.TTL.Groups["low"] = time.Hour

	_, err := rawrcache.Do(t.Context(), svc, "k", compute, rawrcache.Group("low"))
	require.NoError(t, err)
	_, expire, _ := store.entry("k")
	assert.Equal(t, time.Minute, expire)

	got := svc.Settings()
	got.TTL.Groups["low"] = 0
	assert.Equal(t, time.Minute, svc.Settings().TTL.Groups["low"], "Settings must return a copy")

	disabled := testSettings()
	disabled.Enabled = false
	svc.Reload(disabled)
	assert.False(t, svc.Enabled())
}

func TestReload_ConcurrentWithDo(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)
	compute, _ := counter(1)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s := testSettings()
			s.TTL.Default = time.Duration(i) * time.Second
			svc.Reload(s)
		}()
		go func() {
			defer wg.Done()
			_, err := rawrcache.Do(t.Context(), svc, "k:#{i}", compute, rawrcache.Param("i", i))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestEvict_AbsentKeyAndStoreDown(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)

	require.NoError(t, svc.Evict(t.Context(), "never-set"))

	store.failDel.Store(true)
	err := svc.Evict(t.Context(), "k")
	require.ErrorIs(t, err, rawrcache.ErrStoreUnavailable)

	err = svc.EvictAll(t.Context(), []string{"a", "b"})
	require.ErrorIs(t, err, rawrcache.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), `"a"`)
	assert.Contains(t, err.Error(), `"b"`)
}

func TestEvict_DisabledIsNoop(t *testing.T) {
	store := newFakeStore()
	s := testSettings()
	s.Enabled = false
	svc := rawrcache.New(store, rawrcache.WithSettings(s))

	require.NoError(t, svc.Evict(t.Context(), "k"))
	assert.Equal(t, int32(0), store.dels.Load())
}

func TestNilStoreComputesDirectly(t *testing.T) {
	svc := rawrcache.New(nil)
	compute, calls := counter("v")

	got, err := rawrcache.Do(t.Context(), svc, "k", compute)
	require.NoError(t, err)
	assert.Equal(t, "v", got)
	assert.Equal(t, int32(1), calls.Load())
	require.NoError(t, svc.Evict(t.Context(), "k"))

	var nilSvc *rawrcache.Service
	_, err = rawrcache.Do(t.Context(), nilSvc, "k", compute)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDo_NilCompute(t *testing.T) {
	svc := newService(newFakeStore())
	_, err := rawrcache.Do[int](t.Context(), svc, "k", nil)
	require.ErrorIs(t, err, rawrcache.ErrNilCompute)
}

func TestDo_RecordsMetrics(t *testing.T) {
	m, err := metrics.New(nil)
	require.NoError(t, err)
	store := newFakeStore()
	svc := newService(store, rawrcache.WithMetrics(m))
	compute, _ := counter("v")

	_, _ = rawrcache.Do(t.Context(), svc, "k", compute) // miss
	_, _ = rawrcache.Do(t.Context(), svc, "k", compute) // hit
	store.failGet.Store(true)
	_, _ = rawrcache.Do(t.Context(), svc, "k", compute) // fallback

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		`rawrcache_requests_total{op="do",result="miss"} 1`,
		`rawrcache_requests_total{op="do",result="hit"} 1`,
		`rawrcache_requests_total{op="do",result="fallback"} 1`,
		`rawrcache_store_errors_total{op="get"} 1`,
	} {
		assert.True(t, strings.Contains(body, want), "missing %q in:\n%s", want, body)
	}
}

func TestDo_RecordsSpan(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	svc := newService(newFakeStore(), rawrcache.WithTracerProvider(tp))
	compute, _ := counter("v")
	_, err := rawrcache.Do(t.Context(), svc, "user:#{id}", compute, rawrcache.Param("id", 5))
	require.NoError(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "rawrcache.do", spans[0].Name())

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range spans[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "user:5", attrs["cache.key"].AsString())
	assert.Equal(t, "miss", attrs["cache.result"].AsString())
	assert.Equal(t, int64(30), attrs["cache.ttl_seconds"].AsInt64())
}

func TestWrap(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)
	load, calls := counter(profile{ID: 1, Name: "cfg"})

	get := rawrcache.Wrap(svc, "config:global", load, rawrcache.Group("low"))
	for range 3 {
		got, err := get(t.Context())
		require.NoError(t, err)
		assert.Equal(t, "cfg", got.Name)
	}
	assert.Equal(t, int32(1), calls.Load())
	_, expire, ok := store.entry("config:global")
	require.True(t, ok)
	assert.Equal(t, 600*time.Second, expire)
}

func TestWrapArg(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)

	var calls atomic.Int32
	loadUser := func(_ context.Context, id int) (profile, error) {
		calls.Add(1)
		return profile{ID: id}, nil
	}
	getUser := rawrcache.WrapArg(svc, "user:#{id}", loadUser, func(id int) rawrcache.Params {
		return rawrcache.Params{"id": strconv.Itoa(id)}
	})

	for _, id := range []int{1, 2, 1, 2} {
		got, err := getUser(t.Context(), id)
		require.NoError(t, err)
		assert.Equal(t, id, got.ID)
	}
	assert.Equal(t, int32(2), calls.Load())
	_, _, ok := store.entry("user:2")
	assert.True(t, ok)

	// Without params the template cannot be expanded.
	bare := rawrcache.WrapArg(svc, "user:#{id}", loadUser, nil)
	_, err := bare(t.Context(), 3)
	require.ErrorIs(t, err, rawrcache.ErrMissingParameter)
}
