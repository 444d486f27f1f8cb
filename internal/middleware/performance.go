package middleware

import (
	"net/http"
	"strconv"
	"time"

	"fidolity-token-api/internal/models"
	"fidolity-token-api/pkg/logger"
	"fidolity-token-api/pkg/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SlowRequestMiddleware logs requests that take longer than threshold
func SlowRequestMiddleware(threshold time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		if duration := time.Since(startTime); duration > threshold {
			logger.GetLogger().WithContext(c.Request.Context()).Warn("Slow request",
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
				zap.Int("status", c.Writer.Status()),
				zap.Duration("duration", duration),
				zap.Duration("threshold", threshold),
			)
		}
	}
}

// RequestSizeMiddleware caps request bodies at maxBytes
func RequestSizeMiddleware(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, models.NewErrorResponse(
				models.ErrorCodeInvalidRequest,
				"Request body too large",
				"Maximum body size is "+strconv.FormatInt(maxBytes, 10)+" bytes",
				logger.GetCorrelationIDFromContext(c.Request.Context()),
			))
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// ConcurrencyMiddleware reports the number of in-flight requests
func ConcurrencyMiddleware(metricsCollector *metrics.MetricsCollector) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Active-Requests", strconv.FormatInt(metricsCollector.GetMetrics().ActiveRequests, 10))
		c.Next()
	}
}
