package logging

import (
	"context"
	"log/slog"

	"github.com/mkrupp/renewbot/internal/infra/botctx"
)

// TracingHandler wraps another slog.Handler to add the per-update trace ID
// and acting user id from the context to all log records.
type TracingHandler struct {
	h slog.Handler
}

var _ slog.Handler = (*TracingHandler)(nil)

// NewTracingHandler creates a new TracingHandler wrapping the given handler.
func NewTracingHandler(h slog.Handler) *TracingHandler {
	return &TracingHandler{h: h}
}

// Handle implements slog.Handler by adding trace information if available
// in the context before delegating to the wrapped handler.
func (h *TracingHandler) Handle(ctx context.Context, r slog.Record) error {
	attrs := make([]slog.Attr, 0, 2)

	if traceID, ok := botctx.TraceIDFromContext(ctx); ok {
		attrs = append(attrs, slog.String("id", traceID))
	}

	if actorID, ok := botctx.ActorIDFromContext(ctx); ok {
		attrs = append(attrs, slog.Int64("actor", actorID))
	}

	if len(attrs) > 0 {
		r.AddAttrs(slog.Attr{Key: "trace", Value: slog.GroupValue(attrs...)})
	}

	//nolint:wrapcheck
	return h.h.Handle(ctx, r)
}

// WithAttrs implements slog.Handler.WithAttrs.
func (h *TracingHandler) WithAttrs(attrs []slog.Attr) Handler {
	return NewTracingHandler(h.h.WithAttrs(attrs))
}

// WithGroup implements slog.Handler.WithGroup.
func (h *TracingHandler) WithGroup(name string) Handler {
	return NewTracingHandler(h.h.WithGroup(name))
}

// Enabled implements slog.Handler.Enabled.
func (h *TracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.h.Enabled(ctx, level)
}
