package clientauth

import "context"

type requestIDContextKey struct{}
type originContextKey struct{}

// WithRequestID attaches a caller-supplied request identifier to ctx.
// The Provider stamps it onto audit events emitted during the call.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, requestID)
}

// WithOrigin attaches the rendering host's origin (scheme://host) to
// ctx for audit correlation across multi-origin deployments.
func WithOrigin(ctx context.Context, origin string) context.Context {
	return context.WithValue(ctx, originContextKey{}, origin)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	requestID, _ := ctx.Value(requestIDContextKey{}).(string)
	return requestID
}

func originFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	origin, _ := ctx.Value(originContextKey{}).(string)
	return origin
}
