package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/EllieChoi1998/poc-backend/pkg/logger"
)

// clientWindow tracks one client's request count within its current
// window.
type clientWindow struct {
	count   int
	started time.Time
}

// RateLimit caps requests per client IP over a rolling window. Each
// client gets its own window rather than a shared global reset, so a
// burst from one client cannot buy headroom for another. Stale windows
// are swept lazily to keep the map from growing with one-off clients.
// The health endpoint is exempt so liveness checks are never throttled.
func RateLimit(limit int, window time.Duration) gin.HandlerFunc {
	var (
		mu        sync.Mutex
		clients   = make(map[string]*clientWindow)
		lastSweep = time.Now()
	)

	return func(c *gin.Context) {
		if c.FullPath() == "/health" {
			c.Next()
			return
		}

		now := time.Now()
		ip := c.ClientIP()

		mu.Lock()
		if now.Sub(lastSweep) > window {
			for key, w := range clients {
				if now.Sub(w.started) > window {
					delete(clients, key)
				}
			}
			lastSweep = now
		}

		w, ok := clients[ip]
		if !ok || now.Sub(w.started) > window {
			w = &clientWindow{started: now}
			clients[ip] = w
		}
		w.count++
		count := w.count
		mu.Unlock()

		if count > limit {
			logger.Warn(c.Request.Context(), "rate limit exceeded",
				"client_ip", ip,
				"path", c.Request.URL.Path,
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests",
			})
			return
		}

		c.Next()
	}
}
