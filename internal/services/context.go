package services

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	transportKey contextKey = "transport"
)

// Transport labels for control requests.
const (
	TransportIPC = "ipc"
	TransportAPI = "api"
)

// WithRequestID annotates ctx with the identifier assigned to one control
// request so log lines from different layers can be correlated.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the control-request identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithTransport records which surface carried the request.
func WithTransport(ctx context.Context, transport string) context.Context {
	if transport == "" {
		return ctx
	}
	return context.WithValue(ctx, transportKey, transport)
}

// TransportFromContext extracts the request transport if present.
func TransportFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(transportKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
