// Package cache defines the key-value store contract the caching service runs
// against, plus Redis, in-process (ristretto), bbolt and tiered backends.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is wrapped by every backend error caused by the store being
// unreachable or failing. A missing key is never reported as an error.
var ErrUnavailable = errors.New("cache: store unavailable")

// Store is the byte-level contract exposed to the caching service.
type Store interface {
	// Get retrieves a value by key. The boolean indicates a cache hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value under key with the given TTL. A zero TTL means the
	// entry has no automatic expiration.
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key succeeds.
	Delete(ctx context.Context, key string) error
}

// ExpiryReader is implemented by stores that can report how long an entry has
// left to live. Tiered uses it to keep promoted copies from outliving the
// remote entry.
type ExpiryReader interface {
	// RemainingTTL returns the time left before key expires. ok is false when
	// key is absent or expired; a zero duration with ok set means the entry
	// never expires.
	RemainingTTL(ctx context.Context, key string) (time.Duration, bool, error)
}

// unavailable wraps err with ErrUnavailable unless it is nil.
func unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	return &opError{op: op, err: err}
}

type opError struct {
	op  string
	err error
}

func (e *opError) Error() string { return "cache: " + e.op + ": " + e.err.Error() }

func (e *opError) Unwrap() []error { return []error{ErrUnavailable, e.err} }
