package dispatch

import "context"

type requestIDKey struct{}

// WithRequestID returns a context carrying id. The dispatcher logs it with
// every command; the API server sets it from the X-Request-ID header.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
