package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures a Redis store.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// Prefix is prepended to every key, e.g. "app:".
	Prefix string
}

// Redis is the networked store. Connection and command failures are returned
// wrapped with ErrUnavailable so the caching service can fall back to direct
// computation.
type Redis struct {
	rdb    redis.UniversalClient
	prefix string
}

var (
	_ Store        = (*Redis)(nil)
	_ ExpiryReader = (*Redis)(nil)
)

// NewRedis creates a Redis-backed store.
func NewRedis(opts RedisOptions) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return &Redis{rdb: rdb, prefix: opts.Prefix}
}

// NewRedisFromClient wraps an existing client, for example a cluster or
// sentinel client configured by the application.
func NewRedisFromClient(rdb redis.UniversalClient, prefix string) *Redis {
	return &Redis{rdb: rdb, prefix: prefix}
}

// Get retrieves a value by key. A missing key is a miss, not an error.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.rdb.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, unavailable("redis get", err)
	}
	return val, true, nil
}

// Set stores a value under key with the given TTL. A zero TTL means the entry
// has no automatic expiration.
func (r *Redis) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return unavailable("redis set", r.rdb.Set(ctx, r.prefix+key, val, ttl).Err())
}

// Delete removes key. DEL on an absent key returns 0 and is not an error.
func (r *Redis) Delete(ctx context.Context, key string) error {
	return unavailable("redis del", r.rdb.Del(ctx, r.prefix+key).Err())
}

// RemainingTTL reads the key's expiry with PTTL.
func (r *Redis) RemainingTTL(ctx context.Context, key string) (time.Duration, bool, error) {
	d, err := r.rdb.PTTL(ctx, r.prefix+key).Result()
	if err != nil {
		return 0, false, unavailable("redis pttl", err)
	}
	switch {
	case d == -2:
		return 0, false, nil
	case d < 0:
		return 0, true, nil
	}
	return d, true, nil
}

// Ping checks the Redis connection.
func (r *Redis) Ping(ctx context.Context) error {
	return unavailable("redis ping", r.rdb.Ping(ctx).Err())
}

// Close closes the underlying Redis client.
func (r *Redis) Close() error {
	return r.rdb.Close()
}
