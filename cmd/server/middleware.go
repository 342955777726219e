package main

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/secscore-io/secscore/pkg/common"
	"github.com/secscore-io/secscore/pkg/ratelimit"
)

const ctxKeyRequestID = "secscore.requestID"

// rateLimitCleanupInterval is how often idle clients are swept from the
// limiter; each sweep forgets clients that have been idle for a full window.
const rateLimitCleanupInterval = 10 * time.Minute

// requestIDMiddleware stores a request ID on the context: the incoming
// X-Request-Id header when present, otherwise a fresh UUID. Handlers echo
// it back on the response so callers can correlate logs.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxKeyRequestID, id)
		c.Next()
	}
}

// rateLimiterMiddleware throttles requests per client IP using a sliding
// window. Excluded paths bypass the limiter entirely.
func rateLimiterMiddleware(limiter *ratelimit.ClientLimiter, excludedPaths []string) gin.HandlerFunc {
	go func() {
		ticker := time.NewTicker(rateLimitCleanupInterval)
		defer ticker.Stop()
		for range ticker.C {
			limiter.Cleanup()
		}
	}()

	return func(c *gin.Context) {
		for _, prefix := range excludedPaths {
			if strings.HasPrefix(c.Request.URL.Path, prefix) {
				c.Next()
				return
			}
		}

		clientIP := clientIPFromRequest(c)
		allowed, retryAfter := limiter.AllowWithRetryAfter(clientIP)
		if !allowed {
			common.Warn("rate limit exceeded for client %s", clientIP)
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
			mapped := common.MapErrorWithCode(errMsg("rate limit exceeded"), common.ErrCodeRateLimited)
			c.JSON(http.StatusTooManyRequests, gin.H{
				"requestId": requestID(c),
				"code":      mapped.Code,
				"message":   mapped.UserMessage,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// clientIPFromRequest prefers X-Forwarded-For/X-Real-IP (set by a trusted
// reverse proxy) over gin's own RemoteAddr-derived ClientIP.
func clientIPFromRequest(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := c.GetHeader("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return c.ClientIP()
}
