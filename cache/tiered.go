package cache

import (
	"context"
	"time"
)

// Tiered puts an in-process Memory store (L1) in front of a remote Store
// (L2). Reads check L1 first, then L2. Writes and deletes go to both layers,
// L2 first so that a failed remote write never leaves a value only in L1.
//
// L1 copies always expire: they live no longer than the L2 entry and, when
// set, the promote TTL. Entries with neither bound are served from L2 only.
type Tiered struct {
	l1 *Memory
	l2 Store

	// l1TTL caps how long copies live in L1. Evictions on other nodes only
	// reach L2, so it bounds how stale this node can be.
	l1TTL time.Duration
}

var _ Store = (*Tiered)(nil)

// NewTiered creates a two-level store. promoteTTL bounds the lifetime of L1
// copies; zero leaves them bounded by the L2 entry's TTL alone.
func NewTiered(l1 *Memory, l2 Store, promoteTTL time.Duration) *Tiered {
	return &Tiered{l1: l1, l2: l2, l1TTL: promoteTTL}
}

// Get checks L1, then L2. On an L2 hit the value is promoted into L1.
func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok, _ := t.l1.Get(ctx, key); ok {
		return v, true, nil
	}
	v, ok, err := t.l2.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	if d := t.readTTL(ctx, key); d > 0 {
		_ = t.l1.Set(ctx, key, v, d)
	}
	return v, true, nil
}

// readTTL is the lifetime of a copy promoted on a read: the promote TTL,
// capped at the L2 entry's remaining TTL when L2 can report it. Zero means
// the value is not promoted.
func (t *Tiered) readTTL(ctx context.Context, key string) time.Duration {
	er, ok := t.l2.(ExpiryReader)
	if !ok {
		return max(t.l1TTL, 0)
	}
	left, found, err := er.RemainingTTL(ctx, key)
	if err != nil || !found {
		return 0
	}
	return t.promoteTTL(left)
}

// Set writes the value to L2, then L1. If L2 fails nothing is written to L1.
// A value that would never expire in L1 is dropped from it instead.
func (t *Tiered) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if err := t.l2.Set(ctx, key, val, ttl); err != nil {
		return err
	}
	if d := t.promoteTTL(ttl); d > 0 {
		return t.l1.Set(ctx, key, val, d)
	}
	return t.l1.Delete(ctx, key)
}

// Delete removes key from both layers. L1 is always cleared, even when the
// L2 delete fails.
func (t *Tiered) Delete(ctx context.Context, key string) error {
	_ = t.l1.Delete(ctx, key)
	return t.l2.Delete(ctx, key)
}

// promoteTTL caps ttl, where zero means no expiry, at l1TTL. It returns zero
// only when neither bounds the copy.
func (t *Tiered) promoteTTL(ttl time.Duration) time.Duration {
	if t.l1TTL <= 0 {
		return ttl
	}
	if ttl <= 0 || ttl > t.l1TTL {
		return t.l1TTL
	}
	return ttl
}
