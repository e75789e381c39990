package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/printmarket/backend/internal/infrastructure/telemetry"
)

// HTTPMetrics records request counts and latencies per route pattern.
// Unmatched routes share one label value to bound cardinality.
func HTTPMetrics(m *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		method := c.Request.Method
		m.HTTPRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
	}
}
