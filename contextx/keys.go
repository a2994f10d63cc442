// Package contextx carries request-scoped cache hints through a
// context.Context: a default TTL group, a bypass switch and a request ID used
// to correlate log lines.
package contextx

// contextKey is an unexported type used as context key to avoid collisions
// with keys defined in other packages.
type contextKey int

const (
	requestIDKey contextKey = iota
	groupKey
	bypassKey
)
