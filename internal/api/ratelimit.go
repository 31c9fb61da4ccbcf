package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"

	apierrors "github.com/sengkeat-dex/orderbook-svc/pkg/errors"
)

// defaultSubmitRate bounds order submissions per client IP, following the
// teacher's SecurityMiddleware.RateLimiter (internal/api/middleware/security.go)
// but scoped to the one endpoint that mutates the book rather than every
// route, since read-only depth/price polling should not share the budget.
var defaultSubmitRate = limiter.Rate{Period: time.Minute, Limit: 300}

// RateLimit builds a per-IP limiting middleware backed by an in-memory
// store, reporting X-RateLimit-* headers the way the teacher's middleware
// does and rejecting with 429 once a client's budget is exhausted.
func RateLimit(rate limiter.Rate, logger *zap.Logger) gin.HandlerFunc {
	instance := limiter.New(memorystore.NewStore(), rate)

	return func(c *gin.Context) {
		ctx, err := instance.Get(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.Warn("rate limiter lookup failed", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(ctx.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(ctx.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(ctx.Reset, 10))

		if ctx.Reached {
			respondError(c, apierrors.New(apierrors.CodeRateLimited, "rate limit exceeded, slow down"))
			c.Abort()
			return
		}

		c.Next()
	}
}
