package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/EllieChoi1998/poc-backend/pkg/logger"
)

// RequestLogger writes one access log line per request. The line picks
// up request_id, user_id and login_id from the request context, so
// entries for authenticated calls identify the acting reviewer without
// each handler logging it again.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
			"bytes", c.Writer.Size(),
		}
		if query := c.Request.URL.RawQuery; query != "" {
			attrs = append(attrs, "query", query)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		// Auth middleware stores the user identity on the request
		// context, so logging through the context-aware helpers
		// attaches user_id and login_id here.
		ctx := c.Request.Context()
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error(ctx, "request", attrs...)
		case status >= http.StatusBadRequest:
			logger.Warn(ctx, "request", attrs...)
		default:
			logger.Info(ctx, "request", attrs...)
		}
	}
}
