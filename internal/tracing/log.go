package tracing

import (
	"context"

	"github.com/bk-med/kanban/internal/log"
)

// SetupLogger registers the hook that stamps request-scoped identifiers
// onto every log entry.
func SetupLogger(logger *log.Logger) {
	logger.AddHook(log.HookFunc(TraceFieldsHooks))
}

// TraceFieldsHooks appends the trace, request, and operation identifiers
// carried by ctx, when present.
func TraceFieldsHooks(ctx context.Context, msg string, fields ...log.Field) []log.Field {
	if ctx == nil {
		return fields
	}

	lookups := []struct {
		key string
		get func(context.Context) (string, bool)
	}{
		{"trace_id", GetTraceID},
		{"request_id", GetRequestID},
		{"operation_name", GetOperationName},
	}

	for _, l := range lookups {
		if v, ok := l.get(ctx); ok {
			fields = append(fields, log.String(l.key, v))
		}
	}

	return fields
}
