// Package metrics provides the gin middleware that feeds pkg/metrics
// from every HTTP request, mirroring the teacher's request-timing
// middleware pattern.
package metrics

import (
	"time"

	"github.com/gin-gonic/gin"

	pkgmetrics "github.com/classplan/timetable-solver/pkg/metrics"
)

// Middleware times every request and reports it to m. A nil m is safe
// — the underlying collectors no-op on a nil receiver.
func Middleware(m *pkgmetrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.ObserveHTTPRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
