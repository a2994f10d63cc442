// Package breaker stops the caching service from hammering a store that keeps
// failing. While the breaker is open, store calls are skipped and callers go
// straight to direct computation.
//
// States:
//   - Closed: store calls flow normally; consecutive failures are counted.
//   - Open: store calls are skipped; after OpenTimeout the breaker moves to HalfOpen.
//   - HalfOpen: a limited number of probe calls are let through; if
//     HalfOpenMaxSuccess of them succeed the breaker closes, any failure reopens it.
package breaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned by Do when the call was skipped.
var ErrOpen = errors.New("breaker: open")

// State represents the current circuit breaker state.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	}
	return "unknown"
}

// Config holds the circuit breaker parameters.
type Config struct {
	// FailureThreshold is the number of consecutive failures in Closed state
	// before the breaker trips to Open.
	FailureThreshold int

	// OpenTimeout is how long the breaker stays Open before transitioning
	// to HalfOpen.
	OpenTimeout time.Duration

	// HalfOpenMaxSuccess is the number of consecutive successes required in
	// HalfOpen state to close the breaker again.
	HalfOpenMaxSuccess int
}

// DefaultConfig trips after five consecutive store failures and probes again
// after ten seconds.
func DefaultConfig() Config {
	return Config{
		FailureThreshold:   5,
		OpenTimeout:        10 * time.Second,
		HalfOpenMaxSuccess: 1,
	}
}

// Breaker is a consecutive-failure circuit breaker. All methods are safe for
// concurrent use.
type Breaker struct {
	mu sync.Mutex

	cfg Config

	state     State
	failures  int // consecutive failures in Closed
	successes int // consecutive successes in HalfOpen
	probes    int // probes handed out in HalfOpen
	openedAt  time.Time
	nowFunc   func() time.Time

	onChange func(from, to State)
}

// New creates a Breaker. Non-positive thresholds are raised to 1.
func New(cfg Config) *Breaker {
	cfg.FailureThreshold = max(cfg.FailureThreshold, 1)
	cfg.HalfOpenMaxSuccess = max(cfg.HalfOpenMaxSuccess, 1)
	return &Breaker{
		cfg:     cfg,
		state:   Closed,
		nowFunc: time.Now,
	}
}

// OnStateChange registers fn to be called, with the lock released, after
// every state transition.
func (b *Breaker) OnStateChange(fn func(from, to State)) {
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
}

// State returns the current state of the breaker. In Open state it may
// auto-transition to HalfOpen if the timeout has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	from, to, notify := b.checkOpenTimeout()
	s := b.state
	b.mu.Unlock()
	notify(from, to)
	return s
}

// Allow reports whether a store call may proceed. In HalfOpen it hands out at
// most HalfOpenMaxSuccess probes until their outcomes are recorded.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	from, to, notify := b.checkOpenTimeout()

	allowed := false
	switch b.state {
	case Closed:
		allowed = true
	case HalfOpen:
		if b.probes < b.cfg.HalfOpenMaxSuccess {
			b.probes++
			allowed = true
		}
	}
	b.mu.Unlock()
	notify(from, to)
	return allowed
}

// Record feeds the outcome of a store call into the breaker. A nil error is a
// success.
func (b *Breaker) Record(err error) {
	if err == nil {
		b.OnSuccess()
		return
	}
	b.OnFailure()
}

// Release returns a call allowed by Allow without recording an outcome, for
// example when the caller gave up before the store answered. In HalfOpen the
// probe slot becomes available again.
func (b *Breaker) Release() {
	b.mu.Lock()
	if b.state == HalfOpen && b.probes > 0 {
		b.probes--
	}
	b.mu.Unlock()
}

// Do runs fn when the breaker allows it and records the outcome. It returns
// ErrOpen without calling fn otherwise.
func (b *Breaker) Do(fn func() error) error {
	if !b.Allow() {
		return ErrOpen
	}
	err := fn()
	b.Record(err)
	return err
}

// OnSuccess records a successful store call.
func (b *Breaker) OnSuccess() {
	b.mu.Lock()
	from, to := b.state, b.state
	switch b.state {
	case Closed:
		b.failures = 0
	case HalfOpen:
		b.successes++
		if b.successes >= b.cfg.HalfOpenMaxSuccess {
			b.state = Closed
			b.failures = 0
			b.successes = 0
			b.probes = 0
			to = Closed
		}
	}
	fn := b.onChange
	b.mu.Unlock()
	if fn != nil && from != to {
		fn(from, to)
	}
}

// OnFailure records a failed store call.
func (b *Breaker) OnFailure() {
	b.mu.Lock()
	from, to := b.state, b.state
	switch b.state {
	case Closed:
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.toOpen()
			to = Open
		}
	case HalfOpen:
		b.toOpen()
		to = Open
	}
	fn := b.onChange
	b.mu.Unlock()
	if fn != nil && from != to {
		fn(from, to)
	}
}

// checkOpenTimeout transitions from Open to HalfOpen when the timeout has
// elapsed. Must be called with b.mu held; the returned notify must be called
// after unlocking.
func (b *Breaker) checkOpenTimeout() (State, State, func(State, State)) {
	if b.state == Open && b.now().Sub(b.openedAt) >= b.cfg.OpenTimeout {
		b.state = HalfOpen
		b.successes = 0
		b.probes = 0
		if fn := b.onChange; fn != nil {
			return Open, HalfOpen, fn
		}
	}
	return b.state, b.state, func(State, State) {}
}

func (b *Breaker) toOpen() {
	b.state = Open
	b.openedAt = b.now()
	b.successes = 0
	b.probes = 0
}

func (b *Breaker) now() time.Time {
	if b.nowFunc != nil {
		return b.nowFunc()
	}
	return time.Now()
}
