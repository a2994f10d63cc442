package rawrcache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Keksclan/rawrcache/cache"
)

// fakeStore is an in-memory cache.Store that records every call and can be
// switched into failure modes.
type fakeStore struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration

	gets, sets, dels atomic.Int32

	failGet, failSet, failDel atomic.Bool
	// failGetOnce fails the next n Get calls.
	failGetOnce atomic.Int32
	// block makes every call wait for the context to end.
	block atomic.Bool
}

var _ cache.Store = (*fakeStore)(nil)

var errConnRefused = errors.New("dial tcp: connection refused")

func newFakeStore() *fakeStore {
	return &fakeStore{
		entries: make(map[string][]byte),
		ttls:    make(map[string]time.Duration),
	}
}

func (f *fakeStore) wait(ctx context.Context) error {
	if !f.block.Load() {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	f.gets.Add(1)
	if err := f.wait(ctx); err != nil {
		return nil, false, err
	}
	if f.failGet.Load() {
		return nil, false, errConnRefused
	}
	if f.failGetOnce.Load() > 0 {
		f.failGetOnce.Add(-1)
		return nil, false, errConnRefused
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.entries[key]
	return v, ok, nil
}

func (f *fakeStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	f.sets.Add(1)
	if err := f.wait(ctx); err != nil {
		return err
	}
	if f.failSet.Load() {
		return errConnRefused
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = append([]byte(nil), val...)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	f.dels.Add(1)
	if err := f.wait(ctx); err != nil {
		return err
	}
	if f.failDel.Load() {
		return errConnRefused
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, key)
	delete(f.ttls, key)
	return nil
}

func (f *fakeStore) put(key string, val []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = val
}

func (f *fakeStore) entry(key string) ([]byte, time.Duration, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.entries[key]
	return v, f.ttls[key], ok
}

// counter returns a compute function that counts its invocations.
func counter[T any](v T) (func(context.Context) (T, error), *atomic.Int32) {
	var calls atomic.Int32
	return func(context.Context) (T, error) {
		calls.Add(1)
		return v, nil
	}, &calls
}
