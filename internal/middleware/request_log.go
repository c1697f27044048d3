package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/habitgrid/internal/logger"
)

// RequestLogger writes one structured line per request, at a level picked
// from the response status.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()
		if err != nil {
			// let the app error handler set the final status before logging
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
			err = nil
		}

		status := c.Response().StatusCode()
		keyvals := []interface{}{
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", c.IP(),
		}

		msg := c.Method() + " " + c.Path()
		switch {
		case status >= 500:
			logger.Error(msg, keyvals...)
		case status >= 400:
			logger.Warn(msg, keyvals...)
		default:
			logger.Debug(msg, keyvals...)
		}
		return err
	}
}
