// Package botctx carries per-update values through context: a trace ID for
// correlating log lines and the Telegram id of the acting user.
package botctx

import "context"

type contextKey string

const (
	contextKeyTraceID = contextKey("traceID")
	contextKeyActorID = contextKey("actorID")
)

// TraceIDFromContext extracts the trace ID from the context.
// Returns the trace ID and true if present, or empty string and false if not.
func TraceIDFromContext(ctx context.Context) (string, bool) {
	traceID, ok := ctx.Value(contextKeyTraceID).(string)

	return traceID, ok
}

// WithTraceID creates a new context with the given trace ID value.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, contextKeyTraceID, traceID)
}

// ActorIDFromContext extracts the acting Telegram user id from the context.
func ActorIDFromContext(ctx context.Context) (int64, bool) {
	actorID, ok := ctx.Value(contextKeyActorID).(int64)

	return actorID, ok
}

// WithActorID creates a new context with the given acting user id.
func WithActorID(ctx context.Context, actorID int64) context.Context {
	return context.WithValue(ctx, contextKeyActorID, actorID)
}
