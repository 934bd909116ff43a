package api

import (
	"github.com/gin-gonic/gin"

	"github.com/designscozyroom-lab/missioncontrol/internal/otel"
)

// metricsMiddleware counts requests by matched route and status.
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		otel.RecordHTTPRequest(c.Request.Context(), route, c.Writer.Status())
	}
}
