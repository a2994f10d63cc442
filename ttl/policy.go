// Package ttl resolves the expiration applied to a cache entry from an explicit
// duration, a named group, or a configured default.
package ttl

import (
	"maps"
	"time"
)

// NeverExpire is the TTL handed to a store for entries without automatic
// expiration. Every cache.Store treats a zero TTL that way.
const NeverExpire time.Duration = 0

// Source tells which rule produced a resolved TTL.
type Source int

const (
	SourceNone         Source = iota // nothing configured, NeverExpire
	SourceExplicit                   // explicit per-call TTL
	SourceGroup                      // group lookup
	SourceDefault                    // policy default
	SourceUnknownGroup               // group named but not configured, default applied
)

func (s Source) String() string {
	switch s {
	case SourceExplicit:
		return "explicit"
	case SourceGroup:
		return "group"
	case SourceDefault:
		return "default"
	case SourceUnknownGroup:
		return "unknown-group"
	default:
		return "none"
	}
}

// Policy maps group names to durations. A Policy is treated as immutable once
// it is published; use Clone to derive a modified copy.
type Policy struct {
	// Default applies when no explicit TTL or known group is given. Zero means
	// no default is configured.
	Default time.Duration

	// Groups maps a group name to its TTL. A value of NeverExpire is allowed.
	Groups map[string]time.Duration
}

// Resolve picks the TTL for a cache write.
//
// Precedence:
//   - explicit, when non-nil and not negative;
//   - Groups[group], when group is non-empty and configured;
//   - Default, when positive;
//   - NeverExpire.
//
// Resolution never fails. An unknown group falls through to the default and
// is reported as SourceUnknownGroup so the caller can warn about it.
func (p *Policy) Resolve(explicit *time.Duration, group string) (time.Duration, Source) {
	if explicit != nil && *explicit >= 0 {
		return *explicit, SourceExplicit
	}

	unknown := false
	if group != "" {
		if p != nil {
			if d, ok := p.Groups[group]; ok {
				return max(d, NeverExpire), SourceGroup
			}
		}
		unknown = true
	}

	if p != nil && p.Default > 0 {
		if unknown {
			return p.Default, SourceUnknownGroup
		}
		return p.Default, SourceDefault
	}
	if unknown {
		return NeverExpire, SourceUnknownGroup
	}
	return NeverExpire, SourceNone
}

// Clone returns a deep copy of p.
func (p *Policy) Clone() Policy {
	if p == nil {
		return Policy{}
	}
	return Policy{
		Default: p.Default,
		Groups:  maps.Clone(p.Groups),
	}
}
