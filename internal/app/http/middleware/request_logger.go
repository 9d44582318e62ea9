package middleware

import (
	"time"

	"nitpickr-api/internal/logger"

	"github.com/gin-gonic/gin"
)

var httpLog = logger.New("http")

// RequestLogger logs one line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		kv := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"ip", c.ClientIP(),
		}
		if id, ok := CurrentUserID(c); ok {
			kv = append(kv, "user_id", id)
		}
		if len(c.Errors) > 0 {
			kv = append(kv, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			httpLog.Error("Request", kv...)
		case status >= 400:
			httpLog.Warn("Request", kv...)
		default:
			httpLog.Info("Request", kv...)
		}
	}
}
