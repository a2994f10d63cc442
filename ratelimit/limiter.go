// Package ratelimit provides a token-bucket limiter backed by
// golang.org/x/time/rate. The caching service uses it to throttle the
// warnings it logs while a store is down, so an outage produces a steady
// trickle of log lines instead of one per request.
package ratelimit

import (
	"sync/atomic"

	"golang.org/x/time/rate"
)

// Limiter wraps a token-bucket limiter and counts the events it dropped.
type Limiter struct {
	lim        *rate.Limiter
	suppressed atomic.Int64
}

// NewLimiter creates a Limiter that permits rps events per second with the
// given burst size.
func NewLimiter(rps float64, burst int) *Limiter {
	return &Limiter{lim: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Unlimited returns a Limiter that allows every event.
func Unlimited() *Limiter {
	return &Limiter{lim: rate.NewLimiter(rate.Inf, 0)}
}

// Allow reports whether a single event may proceed.
func (l *Limiter) Allow() bool {
	if l.lim.Allow() {
		return true
	}
	l.suppressed.Add(1)
	return false
}

// AllowWithSuppressed is Allow that also returns, when allowed, how many
// events were dropped since the previous allowed one.
func (l *Limiter) AllowWithSuppressed() (bool, int64) {
	if !l.Allow() {
		return false, 0
	}
	return true, l.suppressed.Swap(0)
}
