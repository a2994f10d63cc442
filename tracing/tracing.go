// Package tracing records OpenTelemetry spans for cache operations. It is
// entirely optional: without a configured TracerProvider the global provider
// is used, which is a no-op unless the application installed one.
package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/Keksclan/rawrcache"

// Attribute keys set on cache spans.
const (
	AttrKey    = attribute.Key("cache.key")
	AttrResult = attribute.Key("cache.result")
	AttrTTL    = attribute.Key("cache.ttl_seconds")
	AttrGroup  = attribute.Key("cache.group")
)

// Tracer starts cache spans.
type Tracer struct {
	tp trace.TracerProvider
}

// New returns a Tracer backed by tp, or by otel.GetTracerProvider() when tp
// is nil.
func New(tp trace.TracerProvider) *Tracer {
	return &Tracer{tp: tp}
}

func (t *Tracer) tracer() trace.Tracer {
	tp := t.tp
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(instrumentationName)
}

// Start opens an internal span named "rawrcache.<op>" carrying the cache key.
func (t *Tracer) Start(ctx context.Context, op, key string) (context.Context, *Span) {
	ctx, span := t.tracer().Start(ctx, "rawrcache."+op,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(AttrKey.String(key)),
	)
	return ctx, &Span{span: span}
}

// Span wraps an otel span with cache-specific setters.
type Span struct {
	span trace.Span
}

// SetKey records the expanded cache key.
func (s *Span) SetKey(key string) {
	s.span.SetAttributes(AttrKey.String(key))
}

// SetGroup records the TTL group used for the call.
func (s *Span) SetGroup(group string) {
	if group != "" {
		s.span.SetAttributes(AttrGroup.String(group))
	}
}

// SetTTL records the resolved TTL.
func (s *Span) SetTTL(ttl time.Duration) {
	s.span.SetAttributes(AttrTTL.Int64(int64(ttl / time.Second)))
}

// Event adds a span event, e.g. a swallowed store failure.
func (s *Span) Event(name string, err error) {
	if err == nil {
		s.span.AddEvent(name)
		return
	}
	s.span.AddEvent(name, trace.WithAttributes(attribute.String("error", err.Error())))
}

// End records the result and the error returned to the caller, then ends the
// span.
func (s *Span) End(result string, err error) {
	s.span.SetAttributes(AttrResult.String(result))
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
}
