// Package http wires the fiber application: API routes, the web UI, health
// and metrics endpoints, and the request middleware stack.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"gamestore/internal/config"
	"gamestore/internal/metrics"
	"gamestore/internal/sites"
	"gamestore/web"
)

type Server struct {
	app      *fiber.App
	config   *config.Config
	registry *sites.Registry
	logger   *slog.Logger
	markdown *md.Converter
}

func NewServer(cfg *config.Config, registry *sites.Registry, logger *slog.Logger) *Server {
	app := fiber.New(fiber.Config{
		Views:       web.Engine(),
		ViewsLayout: "templates/layout",
	})

	s := &Server{
		app:      app,
		config:   cfg,
		registry: registry,
		logger:   logger,
		markdown: md.NewConverter("", true, nil),
	}

	app.Use(requestMiddleware(logger))

	// Redis client for rate limiting and deep health checks
	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		if opt, err := redis.ParseURL(cfg.Redis.URL); err == nil {
			rdb = redis.NewClient(opt)
		} else if logger != nil {
			logger.Warn("invalid redis url, rate limiting disabled", "error", err)
		}
	}

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if c.Query("deep") != "true" {
			return c.JSON(fiber.Map{"status": "ok"})
		}

		ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()

		redisStatus := "disabled"
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				redisStatus = "error"
			} else {
				redisStatus = "ok"
			}
		}

		status := "ok"
		if redisStatus == "error" {
			status = "error"
		}
		return c.JSON(fiber.Map{
			"status": status,
			"redis":  redisStatus,
			"sites":  len(registry.IDs()),
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	var rateMw fiber.Handler
	if rdb != nil {
		rateMw = rateLimitMiddleware(cfg, rdb, logger)
	} else {
		rateMw = func(c *fiber.Ctx) error { return c.Next() }
	}

	api := app.Group("/api", rateMw)
	s.registerAPIRoutes(api)
	s.registerAPIRoutes(api.Group("/v1"))

	s.registerWebRoutes(app)

	return s
}

func (s *Server) registerAPIRoutes(group fiber.Router) {
	group.Get("/games", s.apiGames)
	group.Get("/game", s.apiGame)
	group.Get("/search", s.apiSearch)
	group.Get("/sites", s.apiSites)
}

func (s *Server) Listen() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	return s.app.Listen(addr)
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
