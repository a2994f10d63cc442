package rawrcache

import (
	"context"
	"fmt"
	"maps"
	"time"
)

// Params holds the values substituted into a key template.
type Params map[string]string

// CallOption configures a single Do or Evict call.
type CallOption func(*callConfig)

// ReattachFunc post-processes a value read from the cache before it is
// returned, for example to re-bind it to an application session. v is a
// pointer to the decoded value. A returned error fails the call.
type ReattachFunc func(ctx context.Context, v any) error

type callConfig struct {
	params   Params
	group    string
	ttl      *time.Duration
	bypass   bool
	reattach ReattachFunc
}

func newCallConfig(opts []CallOption) *callConfig {
	c := &callConfig{}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Param binds name to the string form of v (fmt.Sprint).
func Param(name string, v any) CallOption {
	return func(c *callConfig) {
		if c.params == nil {
			c.params = make(Params)
		}
		c.params[name] = fmt.Sprint(v)
	}
}

// Args binds every entry of p. Later options override earlier ones.
func Args(p Params) CallOption {
	return func(c *callConfig) {
		if c.params == nil {
			c.params = make(Params, len(p))
		}
		maps.Copy(c.params, p)
	}
}

// Group selects the TTL group for the write on a miss.
func Group(name string) CallOption {
	return func(c *callConfig) {
		c.group = name
	}
}

// TTL sets an explicit expiration that overrides any group. Zero means the
// entry never expires.
func TTL(d time.Duration) CallOption {
	return func(c *callConfig) {
		c.ttl = &d
	}
}

// Bypass disables caching for this call only: compute runs directly and the
// store is never contacted.
func Bypass() CallOption {
	return func(c *callConfig) {
		c.bypass = true
	}
}

// Reattach installs a post-processing hook for values served from the cache.
// Freshly computed values are returned as-is.
func Reattach(fn ReattachFunc) CallOption {
	return func(c *callConfig) {
		c.reattach = fn
	}
}
