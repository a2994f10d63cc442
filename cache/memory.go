package cache

import (
	"bytes"
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Memory is an in-process store backed by ristretto. It serves as the L1 of a
// Tiered store and as a standalone backend for single-node deployments.
type Memory struct {
	rc *ristretto.Cache[string, []byte]
}

var (
	_ Store        = (*Memory)(nil)
	_ ExpiryReader = (*Memory)(nil)
)

// NewMemory creates an in-process store holding at most maxEntries entries
// (each entry has a cost of 1).
func NewMemory(maxEntries int64) (*Memory, error) {
	rc, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
		// Cost counts entries, not bytes.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &Memory{rc: rc}, nil
}

// Get retrieves a value by key.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.rc.Get(key)
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(v), true, nil
}

// Set stores a value under key with the given TTL. Writes are visible to the
// next Get once Set returns.
func (m *Memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	m.rc.SetWithTTL(key, bytes.Clone(val), 1, ttl)
	m.rc.Wait()
	return nil
}

// RemainingTTL reports the time left on key.
func (m *Memory) RemainingTTL(_ context.Context, key string) (time.Duration, bool, error) {
	d, ok := m.rc.GetTTL(key)
	if !ok {
		return 0, false, nil
	}
	return d, true, nil
}

// Delete removes key.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.rc.Del(key)
	return nil
}

// Close stops ristretto's background goroutines.
func (m *Memory) Close() error {
	m.rc.Close()
	return nil
}
