package logging

import "context"

type contextKey string

const (
	sessionIDKey contextKey = "session_id"
	batchIDKey   contextKey = "batch_id"
)

// contextFields are copied onto every log event by ContextHook, in order.
var contextFields = []contextKey{batchIDKey, sessionIDKey}

// WithSessionID tags log events made with ctx with the session being scanned.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// WithBatchID tags log events made with ctx with the scan batch.
func WithBatchID(ctx context.Context, batchID string) context.Context {
	return context.WithValue(ctx, batchIDKey, batchID)
}

func GetSessionID(ctx context.Context) string { return value(ctx, sessionIDKey) }

func GetBatchID(ctx context.Context) string { return value(ctx, batchIDKey) }

func value(ctx context.Context, key contextKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}
