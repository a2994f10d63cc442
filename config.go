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

// DefaultStoreTimeout bounds every store call unless WithStoreTimeout says
// otherwise.
const DefaultStoreTimeout = 250 * time.Millisecond

// config holds the internal configuration assembled via functional options.
type config struct {
	settings       Settings
	logger         zerolog.Logger
	codec          codec.Codec
	storeTimeout   time.Duration
	metrics        *metrics.Metrics
	tracerProvider trace.TracerProvider
	breaker        *breaker.Config
	retry          *retry.Config
	singleFlight   bool
	warnLimit      *ratelimit.Limiter
}

func defaultConfig() config {
	return config{
		settings:     Settings{Enabled: true},
		logger:       zerolog.Nop(),
		codec:        codec.Tagged{},
		storeTimeout: DefaultStoreTimeout,
	}
}
