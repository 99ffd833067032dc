package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/parcel-trip-backend/internal/logger"
)

// RequestLogger пишет одну строку на запрос.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		}
		if userID, ok := c.Get(ContextUserIDKey); ok {
			fields["actor"] = userID
		}

		entry := logger.Log.WithFields(fields)
		switch {
		case c.Writer.Status() >= 500:
			entry.Error("HTTP запрос")
		case c.Writer.Status() >= 400:
			entry.Warn("HTTP запрос")
		default:
			entry.Info("HTTP запрос")
		}
	}
}
