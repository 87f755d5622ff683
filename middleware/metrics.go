package middleware

import (
	"strconv"
	"time"

	"tow-dispatch-api/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics records request counts and latency labelled by route template,
// so /api/orders/admin/7/status and /api/orders/admin/8/status share a series.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.ObserveHTTP(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
