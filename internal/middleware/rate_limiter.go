package middleware

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/caregate/caregate/internal/config"
	"github.com/caregate/caregate/internal/limiter"
	"github.com/caregate/caregate/internal/session"
)

// RateLimiter throttles the OTP endpoints by client IP and, when a session
// is present, by its identifier. It keeps an abusive client from burning
// through the SMS gateway.
type RateLimiter struct {
	store   limiter.Store
	enabled bool
}

func NewRateLimiter(store limiter.Store, enabled bool) *RateLimiter {
	return &RateLimiter{
		store:   store,
		enabled: enabled,
	}
}

func (r *RateLimiter) RateLimit(cfg config.RateLimitConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !r.enabled || !cfg.Enabled {
			return c.Next()
		}

		ip := c.IP()
		if ip == "" {
			ip = c.Context().RemoteIP().String()
		}

		identifier := ""
		if sess, ok := c.Locals(sessionLocal).(*session.Session); ok && sess != nil {
			identifier = sess.Identifier
		}

		ipKey := fmt.Sprintf("rate_limit:ip:%s", ip)
		userKey := fmt.Sprintf("rate_limit:user:%s", identifier)

		if err := r.check(c.Context(), ipKey, cfg); err != nil {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests from this IP",
			})
		}

		if identifier != "" {
			if err := r.check(c.Context(), userKey, cfg); err != nil {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error": "Too many requests from this user",
				})
			}
		}

		return c.Next()
	}
}

func (r *RateLimiter) check(ctx context.Context, key string, cfg config.RateLimitConfig) error {
	count, err := r.store.GetCount(ctx, key)
	if err != nil {
		return err
	}

	if count >= cfg.Limit {
		return fmt.Errorf("rate limit exceeded")
	}

	_, err = r.store.Increment(ctx, key, cfg.Window)
	return err
}
