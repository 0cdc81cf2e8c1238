package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go_subdns/internal/httpx"
	"go_subdns/internal/metrics"
	"go_subdns/internal/ratelimit"
)

// LimitFunc returns the current allowance per window
type LimitFunc func(ctx context.Context) (int, error)

// RateLimit caps requests per client IP for one scope. Limiter errors fail open.
func RateLimit(limiter ratelimit.Limiter, scope string, limit LimitFunc, window time.Duration, logger *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		n, err := limit(ctx)
		if err != nil {
			logger.WithError(err).WithField("scope", scope).Warn("rate limit setting unavailable")
			c.Next()
			return
		}

		ok, err := limiter.Allow(ctx, scope+":"+c.ClientIP(), n, window)
		if err != nil {
			logger.WithError(err).WithField("scope", scope).Warn("rate limiter failed")
			c.Next()
			return
		}
		if !ok {
			metrics.RateLimited.WithLabelValues(scope).Inc()
			httpx.FailErr(c, httpx.ErrRateLimited("Too many requests, please try again later"))
			c.Abort()
			return
		}
		c.Next()
	}
}
