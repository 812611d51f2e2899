package middleware

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Limiter builds per-route rate limit handlers backed by one Redis client.
// Requests pass when Redis is missing or failing.
type Limiter struct {
	rdb     *redis.Client
	enabled bool
}

// NewLimiter returns a Limiter for the configured environment.
// Limits are not enforced in "development" or "test".
func NewLimiter(rdb *redis.Client, env string) *Limiter {
	return &Limiter{rdb: rdb, enabled: limitsApply(env)}
}

func limitsApply(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "", "development", "test":
		return false
	}
	return true
}

// Enabled reports whether l enforces limits.
func (l *Limiter) Enabled() bool { return l.enabled }

// Allow counts one hit for id against resource and reports whether it stays
// within limit for the current window.
func (l *Limiter) Allow(ctx context.Context, resource, id string, limit int, window time.Duration) (bool, error) {
	if !l.enabled {
		return true, nil
	}
	if l.rdb == nil {
		return false, fmt.Errorf("redis client is nil")
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	cnt, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		l.rdb.Expire(ctx, key, window)
	}
	return cnt <= int64(limit), nil
}

// Limit returns a Fiber middleware enforcing `limit` requests per `window`
// for the named resource. Only unsafe methods count; form pages stay reachable.
// It keys by authenticated userID when present, otherwise by remote IP.
func (l *Limiter) Limit(limit int, window time.Duration, name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !l.enabled || c.Method() == fiber.MethodGet || c.Method() == fiber.MethodHead {
			return c.Next()
		}

		var id string
		if uid := c.Locals("userID"); uid != nil {
			id = fmt.Sprintf("user:%v", uid)
		} else {
			id = fmt.Sprintf("ip:%s", c.IP())
		}

		allowed, err := l.Allow(c.UserContext(), name, id, limit, window)
		if err != nil {
			Logger.DebugContext(c.UserContext(), "rate limit unavailable",
				"resource", name, "path", c.Path(), "error", err.Error())
			return c.Next()
		}

		if !allowed {
			RateLimited.WithLabelValues(name).Inc()
			return c.Status(fiber.StatusTooManyRequests).SendString("Too many requests, please try again later.")
		}
		return c.Next()
	}
}
