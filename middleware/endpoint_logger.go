package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"prescription-ai/util"
)

// EndpointCallLogger logs each HTTP request as an endpoint event once the
// handler chain finished, including the status it resolved to and how long it
// took.
func EndpointCallLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()

		details := map[string]interface{}{
			"method":      c.Request.Method,
			"path":        c.FullPath(),
			"raw_path":    c.Request.URL.Path,
			"status":      status,
			"duration_ms": duration.Milliseconds(),
			"query":       c.Request.URL.RawQuery,
		}
		if id := GetRequestID(c); id != "" {
			details["request_id"] = id
		}

		util.LogEvent(util.Event{
			EventType: util.EventEndpointCall,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Message:   fmt.Sprintf("%s %s -> %d", c.Request.Method, c.Request.URL.Path, status),
			Details:   details,
		})
	}
}
