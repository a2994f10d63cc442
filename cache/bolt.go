package cache

import (
	"context"
	"encoding/binary"
	"time"

	bolt "go.etcd.io/bbolt"
)

// BoltOptions configures a Bolt store.
type BoltOptions struct {
	// Bucket is the name of the Bolt bucket to use. Defaults to "cache".
	Bucket string
	// OpenTimeout bounds how long Open waits for the file lock.
	OpenTimeout time.Duration
}

// Bolt is a persistent single-node store. Each value is prefixed with an
// 8-byte big-endian expiry in unix milliseconds (0 = never); expired entries read as misses
// and are removed lazily on the next write to the same key or by Sweep.
type Bolt struct {
	db     *bolt.DB
	bucket []byte
	now    func() time.Time
}

var (
	_ Store        = (*Bolt)(nil)
	_ ExpiryReader = (*Bolt)(nil)
)

// OpenBolt opens or creates a Bolt store at path.
func OpenBolt(path string, opts BoltOptions) (*Bolt, error) {
	timeout := opts.OpenTimeout
	if timeout <= 0 {
		timeout = time.Second
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, unavailable("bolt open", err)
	}
	bucket := []byte("cache")
	if opts.Bucket != "" {
		bucket = []byte(opts.Bucket)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, unavailable("bolt open", err)
	}
	return &Bolt{db: db, bucket: bucket, now: time.Now}, nil
}

// Get returns the value for key if present and not expired.
func (b *Bolt) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, unavailable("bolt get", err)
	}
	var (
		out   []byte
		found bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(b.bucket).Get([]byte(key))
		if len(v) < 8 || b.expired(v) {
			return nil
		}
		out = make([]byte, len(v)-8)
		copy(out, v[8:])
		found = true
		return nil
	})
	if err != nil {
		return nil, false, unavailable("bolt get", err)
	}
	return out, found, nil
}

// Set stores value with an absolute expiry of now+ttl. A zero TTL never
// expires.
func (b *Bolt) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return unavailable("bolt set", err)
	}
	var expiresAt int64
	if ttl > 0 {
		expiresAt = b.now().Add(ttl).UnixMilli()
	}
	buf := make([]byte, 8+len(val))
	binary.BigEndian.PutUint64(buf[:8], uint64(expiresAt))
	copy(buf[8:], val)

	return unavailable("bolt set", b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(b.bucket).Put([]byte(key), buf)
	}))
}

// RemainingTTL reads the expiry header of key.
func (b *Bolt) RemainingTTL(ctx context.Context, key string) (time.Duration, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, unavailable("bolt ttl", err)
	}
	var (
		left  time.Duration
		found bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(b.bucket).Get([]byte(key))
		if len(v) < 8 || b.expired(v) {
			return nil
		}
		found = true
		if expiresAt := int64(binary.BigEndian.Uint64(v[:8])); expiresAt > 0 {
			left = time.UnixMilli(expiresAt).Sub(b.now())
		}
		return nil
	})
	if err != nil {
		return 0, false, unavailable("bolt ttl", err)
	}
	return left, found, nil
}

// Delete removes key.
func (b *Bolt) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return unavailable("bolt delete", err)
	}
	return unavailable("bolt delete", b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(b.bucket).Delete([]byte(key))
	}))
}

// Sweep deletes every expired entry and reports how many were removed.
func (b *Bolt) Sweep(ctx context.Context) (int, error) {
	removed := 0
	err := b.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket(b.bucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if len(v) >= 8 && b.expired(v) {
				if err := c.Delete(); err != nil {
					return err
				}
				removed++
			}
		}
		return nil
	})
	if err != nil {
		return removed, unavailable("bolt sweep", err)
	}
	return removed, nil
}

// Close closes the underlying database.
func (b *Bolt) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *Bolt) expired(v []byte) bool {
	expiresAt := int64(binary.BigEndian.Uint64(v[:8]))
	return expiresAt > 0 && b.now().UnixMilli() >= expiresAt
}
