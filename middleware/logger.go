package middleware

import (
	"log/slog"
	"storefront/pkg/ctxmanage"
	"storefront/pkg/logkey"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Requests that already went through the logger keep their trace id.
		traceId := ctxmanage.GetTraceIdOfRequest(c)
		if traceId == "Unknown" {
			traceId = uuid.NewString()
			ctx := ctxmanage.AddTraceIdToContext(c.Request.Context(), traceId)
			c.Request = c.Request.WithContext(ctx)
			c.Header("X-Trace-Id", traceId)
		}

		start := time.Now()
		slog.Info("started", slog.String(logkey.TraceID, traceId),
			slog.String("Method", c.Request.Method), slog.String("URL Path", c.Request.URL.Path))

		c.Next()

		slog.Info("completed", slog.String(logkey.TraceID, traceId),
			slog.String("Method", c.Request.Method), slog.String("URL Path", c.Request.URL.Path),
			slog.Int("Status Code", c.Writer.Status()), slog.Duration("Latency", time.Since(start)))
	}
}
