package middlewares

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ecotrack/utils"
)

const (
	RequestIDKey    = "requestID"
	RequestIDHeader = "X-Request-ID"
)

// RequestID propagates the caller's request id or assigns a new one
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestLogger logs one line per request once it completes
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		utils.LogRequest(c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start), c.GetString(RequestIDKey))
	}
}

// Limiter decides whether a user may submit another entry
type Limiter interface {
	Allow(ctx context.Context, userID string) (bool, error)
}

// SubmissionRateLimit rejects entry submissions over the per-user limit.
// Limiter errors are logged and the request is let through.
func SubmissionRateLimit(limiter Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		userID := c.GetString(UserIDKey)
		allowed, err := limiter.Allow(c.Request.Context(), userID)
		if err != nil {
			utils.LogWarn("rate limiter unavailable for %s: %v", userID, err)
			c.Next()
			return
		}
		if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many submissions, slow down"})
			c.Abort()
			return
		}
		c.Next()
	}
}
