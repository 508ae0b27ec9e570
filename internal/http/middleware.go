package http

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"gamestore/internal/config"
	"gamestore/internal/metrics"
)

// requestMiddleware assigns a request ID and records a structured log line
// plus request metrics for every request.
func requestMiddleware(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		reqID := c.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Locals("request_id", reqID)
		c.Set("X-Request-Id", reqID)

		err := c.Next()

		latency := time.Since(start)
		status := c.Response().StatusCode()
		metrics.RecordRequest(c.Method(), c.Route().Path, status, latency)

		if logger != nil {
			logger.Info("request",
				"request_id", reqID,
				"method", c.Method(),
				"path", c.Path(),
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		}
		return err
	}
}

// rateLimitMiddleware enforces a per-minute fixed-window rate limit per
// client IP using Redis. A Redis failure lets the request through rather
// than taking the API down with it.
func rateLimitMiddleware(cfg *config.Config, rdb *redis.Client, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := cfg.RateLimit.DefaultPerMinute
		if limit <= 0 {
			return c.Next()
		}

		window := time.Now().UTC().Format("200601021504")
		key := fmt.Sprintf("gamestore:rl:%s:%s", c.IP(), window)

		ctx := c.Context()
		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			if logger != nil {
				logger.Warn("rate limit increment failed", "error", err)
			}
			return c.Next()
		}
		if count == 1 {
			_ = rdb.Expire(ctx, key, time.Minute)
		}

		if count > int64(limit) {
			return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{
				Status:  "error",
				Message: "Rate limit exceeded, try again later.",
				Code:    CodeRateLimitExceeded,
			})
		}
		return c.Next()
	}
}
