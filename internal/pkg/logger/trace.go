package logger

import (
	"context"
	log "log/slog"
)

// TraceIDKey 链路追踪在 Context 中的键名
const TraceIDKey = "trace_id"

// ContextHandler 从 ctx 中提取 trace_id 附加到日志记录
type ContextHandler struct {
	log.Handler
}

func (h *ContextHandler) Handle(ctx context.Context, r log.Record) error {
	if ctx != nil {
		if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
			r.AddAttrs(log.String("trace_id", traceID))
		}
	}
	return h.Handler.Handle(ctx, r)
}
