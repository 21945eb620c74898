package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/xid"
)

// RequestID tags every request with an identifier for log correlation.
// An incoming X-Request-ID is trusted so IDs stay stable across services.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = xid.New().String()
		}

		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)

		c.Next()
	}
}
