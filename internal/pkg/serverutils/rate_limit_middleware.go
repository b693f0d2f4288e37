package serverutils

import (
	"math"
	"strconv"

	"career-counselor-be/internal/pkg/logger"
	"career-counselor-be/internal/pkg/ratelimit"

	"github.com/gofiber/fiber/v2"
)

// NewRateLimitMiddleware limits an authenticated route per caller. It must
// run after the JWT middleware.
func NewRateLimitMiddleware(limiter *ratelimit.Limiter, scope string, log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		userID, err := CurrentUserID(ctx)
		if err != nil {
			return err
		}

		decision, err := limiter.Allow(ctx.UserContext(), scope+":"+userID.String())
		if err != nil {
			log.Warn("RATE_LIMIT", "Limiter unavailable, allowing request", map[string]interface{}{
				"scope": scope,
				"error": err.Error(),
			})
			return ctx.Next()
		}

		if decision.Limit > 0 {
			ctx.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			ctx.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		}

		if !decision.Allowed {
			retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
			if retryAfter <= 0 {
				retryAfter = 1
			}
			ctx.Set("Retry-After", strconv.Itoa(retryAfter))
			return ctx.Status(fiber.StatusTooManyRequests).
				JSON(ErrorResponse(fiber.StatusTooManyRequests, "Too many messages, please slow down"))
		}

		return ctx.Next()
	}
}
