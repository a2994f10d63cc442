// Package policy maps full gRPC method names to caching rules. It is used by
// the interceptors package to cache responses of read methods and to evict
// keys after write methods succeed.
package policy

import (
	"regexp"
	"time"
)

// Policy describes how responses of a matched method interact with the cache.
type Policy struct {
	// Key is the key template for caching the method's response. An empty
	// Key means responses are not cached.
	Key string

	// Group selects the TTL group. TTL, when positive, overrides it.
	Group string
	TTL   time.Duration

	// Evict lists key templates removed after the method returns without
	// error.
	Evict []string
}

// Cacheable reports whether responses of the method are cached.
func (p *Policy) Cacheable() bool { return p != nil && p.Key != "" }

// matchKind distinguishes the three matching strategies.
type matchKind int

const (
	kindExact  matchKind = iota // highest priority
	kindPrefix                  // medium priority
	kindRegex                   // lowest priority
)

// matcher is a single matching rule inside a RuleBuilder.
type matcher struct {
	kind    matchKind
	pattern string         // used for exact and prefix matches
	re      *regexp.Regexp // used for regex matches
}

// RuleBuilder constructs a named rule with one or more method matchers and a
// policy.
type RuleBuilder struct {
	name     string
	matchers []matcher
	policy   *Policy
}

// Rule starts building a new rule with the given name.
func Rule(name string) *RuleBuilder {
	return &RuleBuilder{name: name}
}

// Exact adds an exact-match matcher for pattern.
func (r *RuleBuilder) Exact(pattern string) *RuleBuilder {
	r.matchers = append(r.matchers, matcher{kind: kindExact, pattern: pattern})
	return r
}

// Prefix adds a prefix-match matcher for pattern.
func (r *RuleBuilder) Prefix(pattern string) *RuleBuilder {
	r.matchers = append(r.matchers, matcher{kind: kindPrefix, pattern: pattern})
	return r
}

// Regex adds a regex-match matcher for pattern.
// The pattern is compiled immediately; an invalid regex will panic.
func (r *RuleBuilder) Regex(pattern string) *RuleBuilder {
	r.matchers = append(r.matchers, matcher{kind: kindRegex, pattern: pattern, re: regexp.MustCompile(pattern)})
	return r
}

// Policy attaches a Policy to the rule and returns the finished builder.
func (r *RuleBuilder) Policy(p Policy) *RuleBuilder {
	r.policy = &p
	return r
}
