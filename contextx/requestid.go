package contextx

import "context"

// WithRequestID returns a derived context carrying id. Cache log lines for
// calls made with ctx are tagged with it as request_id, so a hit, a miss or a
// swallowed store failure can be traced back to the request that caused it.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the ID set by WithRequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
