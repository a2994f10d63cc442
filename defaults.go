package rawrcache

import "github.com/Keksclan/rawrcache/breaker"

// DefaultOptions returns the recommended set of options for production use:
// a circuit breaker in front of the store and at most one store-failure
// warning per second.
func DefaultOptions() []Option {
	return []Option{
		WithBreaker(breaker.DefaultConfig()),
		WithWarnLimit(1, 5),
	}
}
