package monitoring

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the per-request run ID
const RequestIDHeader = "X-Request-ID"

// MonitoringMiddleware creates Gin middleware for request monitoring. It
// assigns a run ID to requests that arrive without one.
func MonitoringMiddleware(metrics *Metrics, logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics.IncrementRequest()

		if c.GetHeader(RequestIDHeader) == "" {
			c.Request.Header.Set(RequestIDHeader, uuid.New().String())
		}
		c.Header(RequestIDHeader, c.GetHeader(RequestIDHeader))

		c.Next()

		statusCode := c.Writer.Status()
		metrics.RecordRequestByStatus(statusCode)
		if statusCode >= 400 {
			metrics.IncrementError()
		}

		logger.RequestLogger(c.Request.Method, c.Request.URL.Path, c.ClientIP(), statusCode, time.Since(start))
	}
}
