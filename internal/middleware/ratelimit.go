package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// redisCommands is the slice of the redis client the limiter needs.
type redisCommands interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RateLimit returns a fixed-window per-user limiter backed by Redis, meant
// for the routes that fan out into back-office scrapes: the upstream is a
// fragile legacy system and one worked-up operator must not hammer it.
// With rdb nil (Redis unreachable at startup) the limiter is a no-op; the
// scrape client still applies its own token-bucket pacing.
func RateLimit(rdb *redis.Client, limit int, window time.Duration) echo.MiddlewareFunc {
	if rdb == nil || limit <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return rateLimitWith(rdb, limit, window)
}

func rateLimitWith(rdb redisCommands, limit int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			user := "guest"
			if v := c.Get("user_id"); v != nil {
				user = fmt.Sprint(v)
			}
			key := fmt.Sprintf("rl:%s:%s:%d", c.Path(), user, time.Now().Unix()/int64(window.Seconds()))

			n, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				// Redis trouble never blocks the request.
				return next(c)
			}
			// Refreshed on every hit so a failed EXPIRE self-heals on the
			// next request instead of leaving the key behind.
			if err := rdb.Expire(ctx, key, window).Err(); err != nil {
				return next(c)
			}
			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			if n > int64(limit) {
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":       "too_many_requests",
					"retry_after": int(window.Seconds()),
				})
			}
			return next(c)
		}
	}
}
