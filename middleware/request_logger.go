package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"creative-ads-pipeline/application/ports/outbound"
)

// RequestLogger logs every handled request with its status and latency,
// skipping the health probe to keep the log readable.
func RequestLogger(logger outbound.LoggerPort) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		fields := map[string]interface{}{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}
		if c.Writer.Status() >= 500 {
			logger.ErrorWithFields(nil, "Request failed", fields)
			return
		}
		logger.InfoWithFields("Request handled", fields)
	}
}
