package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/persistence"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

// ReportBurstLimiter caps how many issues one account can file within the
// window, on top of the lifetime quota. Counters live in Redis; when Redis is
// unreachable the limiter fails open so reporting stays available.
func ReportBurstLimiter(redis *persistence.Redis, logger *zap.Logger, limit int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if redis == nil || redis.Client == nil || limit <= 0 {
			return c.Next()
		}
		principal, ok := auth.PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("user required")
		}

		key := fmt.Sprintf("report_burst:%s", principal.ID)
		ctx := c.UserContext()

		count, err := redis.Client.Incr(ctx, key).Result()
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.Error(err))
			return c.Next()
		}
		if count == 1 {
			if err := redis.Client.Expire(ctx, key, window).Err(); err != nil {
				logger.Warn("rate limiter expire failed", zap.Error(err))
			}
		}
		if count > int64(limit) {
			return apperrors.NewForbidden("report limit reached, try again later")
		}
		return c.Next()
	}
}
