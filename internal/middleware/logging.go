package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"actiongate/internal/logger"
)

// RequestIDKey is the Gin context key carrying the per-request ID.
const RequestIDKey = "requestID"

// TraceIDKey is the Gin context key carrying the caller-supplied trace ID.
const TraceIDKey = "traceID"

// RequestLogging returns a Gin middleware that logs each request with a unique
// request ID, method, path, status code, latency, and client IP using Zap.
// A caller-supplied X-Trace-ID is propagated for audit correlation.
func RequestLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := uuid.New().String()
		c.Set(RequestIDKey, requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)

		if traceID := c.GetHeader("X-Trace-ID"); traceID != "" {
			c.Set(TraceIDKey, traceID)
		}

		c.Next()

		latency := time.Since(start)
		logger.Get().Infow("request",
			"request_id", requestID,
			"trace_id", c.GetString(TraceIDKey),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", latency.Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}
