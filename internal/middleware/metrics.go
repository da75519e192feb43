package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/weprep-api/internal/service"
)

const unmatchedRoute = "unmatched"

// Metrics records request latency and counts labelled by route template. Paths that match no
// route collapse into one label so probes for random URLs do not grow the series set.
func Metrics(metricsSvc *service.MetricsService, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		if _, ok := skipped[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
