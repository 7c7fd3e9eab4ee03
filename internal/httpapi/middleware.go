package httpapi

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/fathima-sithara/realtime-chat/internal/auth"
)

const localUserID = "userID"

// JWTAuth resolves the authenticated user from a Bearer token and stores
// the id in locals for the handlers.
func JWTAuth(verifier *auth.Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing authorization"})
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid authorization"})
		}
		userID, err := verifier.Verify(parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
		}
		c.Locals(localUserID, userID)
		return c.Next()
	}
}

func authedUser(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}

// RateLimiter is a fixed-window per-user limiter backed by Redis INCR.
type RateLimiter struct {
	Redis  *redis.Client
	Prefix string
	Limit  int
	Window time.Duration
}

func (r *RateLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := fmt.Sprintf("%s:rl:%s", r.Prefix, clientKey(c))
		ctx := context.Background()
		count, err := r.Redis.Incr(ctx, key).Result()
		if err != nil {
			// Limiter outage must not take the API down.
			return c.Next()
		}
		if count == 1 {
			r.Redis.Expire(ctx, key, r.Window)
		}
		if count > int64(r.Limit) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded"})
		}
		return c.Next()
	}
}

func clientKey(c *fiber.Ctx) string {
	if id := authedUser(c); id != "" {
		return id
	}
	return c.IP()
}
