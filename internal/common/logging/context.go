package logging

import "context"

type contextKey int

const invocationIDKey contextKey = iota

// ContextWithInvocationID attaches a tool-invocation correlation id to the
// context so every log line of that invocation can carry it.
func ContextWithInvocationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, invocationIDKey, id)
}

// InvocationIDFromContext returns the invocation id stored in the context,
// or "" when none is set.
func InvocationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(invocationIDKey).(string); ok {
		return id
	}
	return ""
}
