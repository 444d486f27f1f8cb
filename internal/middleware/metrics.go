package middleware

import (
	"time"

	"fidolity-token-api/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// MetricsMiddleware records request counts and latency. Responses below 400 count as successful.
func MetricsMiddleware(metricsCollector *metrics.MetricsCollector) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		metricsCollector.RecordRequest()

		c.Next()

		metricsCollector.RecordRequestComplete(time.Since(startTime), c.Writer.Status() < 400)
	}
}
