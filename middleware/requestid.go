package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDKey is the context key holding the request identifier.
const RequestIDKey = "request_id"

// RequestID assigns every request a unique identifier, honoring one supplied
// by an upstream proxy, and echoes it back in the X-Request-ID header so
// clients can correlate reports with the event log.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

// GetRequestID returns the identifier assigned by RequestID, or an empty string.
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}
