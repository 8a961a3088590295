package observability

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

// RoutePattern returns the pattern of the last route the request matched,
// e.g. "/users/:id/status". The result is safe to keep after the handler
// returns.
func RoutePattern(c *fiber.Ctx) string {
	if route := c.Route(); route != nil && route.Path != "" {
		return utils.CopyString(route.Path)
	}
	return "unmatched"
}

// RequestLogger logs each request once it has been fully handled and records
// request metrics against the matched route pattern.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		elapsed := time.Since(start)

		status := c.Response().StatusCode()
		method := utils.CopyString(c.Method())
		metrics.RecordRequest(RoutePattern(c), method, status, elapsed)

		fields := []zap.Field{
			zap.String("method", method),
			zap.String("path", utils.CopyString(c.Path())),
			zap.Int("status", status),
			zap.Duration("duration", elapsed),
			zap.String("ip", c.IP()),
		}
		switch {
		case status >= 500:
			logger.Error("request", fields...)
		case status >= 400:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
		return err
	}
}
