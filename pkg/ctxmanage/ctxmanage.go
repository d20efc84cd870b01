package ctxmanage

import (
	"context"

	"github.com/gin-gonic/gin"
)

type ctxKey int

const TraceIdKey ctxKey = 1

// AddTraceIdToContext returns a copy of ctx carrying the trace id.
func AddTraceIdToContext(ctx context.Context, traceId string) context.Context {
	return context.WithValue(ctx, TraceIdKey, traceId)
}

// GetTraceIdOfRequest returns the trace id set by the Logger middleware,
// or "Unknown" when the request did not pass through it.
func GetTraceIdOfRequest(c *gin.Context) string {
	return GetTraceId(c.Request.Context())
}

func GetTraceId(ctx context.Context) string {
	traceId, ok := ctx.Value(TraceIdKey).(string)
	if !ok {
		return "Unknown"
	}
	return traceId
}
