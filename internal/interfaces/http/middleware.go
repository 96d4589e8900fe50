package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/estr/backoffice/internal/session"
)

// loggingMiddleware logs every request with the signed-in user when known
func loggingMiddleware(sessions *session.Manager, logger Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		userID := ""
		if user, ok := session.CurrentUser(c); ok {
			userID = user.UserID
		}

		kv := []interface{}{
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
			"user_id", userID,
		}
		if len(c.Errors) > 0 {
			kv = append(kv, "error", c.Errors.String())
			logger.Error("HTTP request", kv...)
			return
		}
		logger.Info("HTTP request", kv...)
	}
}
