package server

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/mealplan/internal/observability/logger"
	"go.uber.org/zap"
)

const rateLimitReasonReschedule = "reschedule-rate"

// RescheduleRateLimit throttles schedule edits per user. The limiter fails
// open when Redis is absent or unreachable.
func (s *Server) RescheduleRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Enabled() {
			c.Next()
			return
		}

		userID, ok := userIDFromContext(c)
		if !ok {
			return
		}

		ctx := c.Request.Context()
		res, err := s.limiter.AllowReschedule(ctx, userID)
		if err != nil {
			logger.FromContext(ctx).Warn("reschedule rate limit check failed", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if !res.Allowed {
			denyRateLimit(c, res.RetryAfter.Seconds())
			return
		}
		c.Next()
	}
}

func denyRateLimit(c *gin.Context, retryAfterSeconds float64) {
	log := logger.FromContext(c.Request.Context())
	log.Warn("reschedule rate limit exceeded",
		zap.String("reason", rateLimitReasonReschedule),
		zap.String("route", c.FullPath()),
	)

	retry := int64(math.Ceil(retryAfterSeconds))
	if retry < 1 {
		retry = 1
	}
	c.Header("Retry-After", strconv.FormatInt(retry, 10))
	c.Header("X-Rate-Limited-Reason", rateLimitReasonReschedule)
	AbortWithError(c, ErrRateLimited)
}
