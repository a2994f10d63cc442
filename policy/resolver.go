package policy

// Resolver holds a set of rules and resolves a full gRPC method name to the
// best-matching rule and its policy.
type Resolver struct {
	rules []*RuleBuilder
}

// NewResolver creates a Resolver from the supplied rule builders.
func NewResolver(rules ...*RuleBuilder) *Resolver {
	return &Resolver{rules: rules}
}

// Resolve finds the best-matching rule for fullMethod.
//
// Priority rules:
//   - Exact matches beat prefix matches, which beat regex matches.
//   - Among matches of the same kind the longer match wins.
//   - When two matches have equal kind and length the rule that was
//     registered first (stable order) wins.
//
// If no rule matches, ok is false.
func (res *Resolver) Resolve(fullMethod string) (ruleName string, pol *Policy, ok bool) {
	if res == nil {
		return "", nil, false
	}
	bestKind := matchKind(-1)
	bestLen := -1

	for _, r := range res.rules {
		for _, m := range r.matchers {
			matched, mLen := m.match(fullMethod)
			if !matched {
				continue
			}
			// A lower kind value means higher priority.
			better := bestKind < 0 ||
				m.kind < bestKind ||
				(m.kind == bestKind && mLen > bestLen)
			if better {
				bestKind = m.kind
				bestLen = mLen
				ruleName = r.name
				pol = r.policy
				ok = true
			}
		}
	}
	return ruleName, pol, ok
}
