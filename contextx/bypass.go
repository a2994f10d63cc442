package contextx

import "context"

// WithBypass returns a derived context in which cache calls skip the store
// and run their computation directly. Useful for admin paths that must always
// see fresh data.
func WithBypass(ctx context.Context) context.Context {
	return context.WithValue(ctx, bypassKey, true)
}

// BypassFromContext reports whether ctx was marked with WithBypass.
func BypassFromContext(ctx context.Context) bool {
	b, _ := ctx.Value(bypassKey).(bool)
	return b
}
