package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// ============================================================================
// RATE LIMITING MIDDLEWARE
// ============================================================================
// Sliding-window limits keyed by client IP. Auth routes get a tight budget
// against password guessing; the JSON API gets a general one.

// AuthRateLimiter limits login and registration attempts per IP and path.
func AuthRateLimiter(max int, window time.Duration) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + ":" + c.Path()
		},
		LimitReached: func(c *fiber.Ctx) error {
			retry := int(window.Seconds())
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retry))
			if isAPI(c) {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error":       "Authentication rate limit exceeded",
					"retry_after": retry,
				})
			}
			return c.Status(fiber.StatusTooManyRequests).SendString("Too many attempts, try again later")
		},
		LimiterMiddleware: limiter.SlidingWindow{},
	})
}

// APIRateLimiter is the general limit for bearer-authenticated API calls.
func APIRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        200,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "API rate limit exceeded",
				"retry_after": 60,
				"limit":       200,
				"window":      "1 minute",
			})
		},
		LimiterMiddleware: limiter.SlidingWindow{},
	})
}

func isAPI(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Path(), "/api/")
}
