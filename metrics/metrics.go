// Package metrics exposes Prometheus counters for the caching service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result labels for RequestsTotal.
const (
	ResultHit      = "hit"
	ResultMiss     = "miss"
	ResultBypass   = "bypass"
	ResultFallback = "fallback"
	ResultError    = "error"
	ResultEvicted  = "evicted"
)

// Op labels.
const (
	OpDo    = "do"
	OpEvict = "evict"
	OpGet   = "get"
	OpSet   = "set"
	OpDel   = "delete"
	OpCodec = "codec"
)

// Metrics groups the collectors recorded by the caching service. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	requests    *prometheus.CounterVec
	storeErrors *prometheus.CounterVec
	compute     prometheus.Histogram
	gatherer    prometheus.Gatherer
}

// New creates the collectors and registers them with reg. When reg is nil a
// private registry is used, which keeps tests independent of the global
// default registry.
func New(reg prometheus.Registerer) (*Metrics, error) {
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if reg == nil {
		r := prometheus.NewRegistry()
		reg, gatherer = r, r
	} else if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rawrcache",
			Name:      "requests_total",
			Help:      "Cache operations by operation and result.",
		}, []string{"op", "result"}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rawrcache",
			Name:      "store_errors_total",
			Help:      "Failed store and codec calls by operation.",
		}, []string{"op"}),
		compute: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rawrcache",
			Name:      "compute_duration_seconds",
			Help:      "Duration of compute callbacks run on a miss, bypass or fallback.",
			Buckets:   prometheus.DefBuckets,
		}),
		gatherer: gatherer,
	}
	for _, c := range []prometheus.Collector{m.requests, m.storeErrors, m.compute} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Request counts one cache operation outcome.
func (m *Metrics) Request(op, result string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(op, result).Inc()
}

// StoreError counts one failed store or codec call.
func (m *Metrics) StoreError(op string) {
	if m == nil {
		return
	}
	m.storeErrors.WithLabelValues(op).Inc()
}

// Compute observes the duration of a compute callback.
func (m *Metrics) Compute(d time.Duration) {
	if m == nil {
		return
	}
	m.compute.Observe(d.Seconds())
}

// Handler returns an http.Handler that serves the registry the collectors
// were registered with.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
