package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"gamestore/internal/config"
	"gamestore/internal/fetch"
	server "gamestore/internal/http"
	"gamestore/internal/sites"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	cfg := config.Load(*configPath)

	logger := newLogger()

	registry := sites.NewRegistry(sites.Options{
		Fetch: fetch.Config{
			UserAgent:       cfg.Fetch.UserAgent,
			Timeout:         cfg.FetchTimeout(),
			CacheDir:        cfg.Fetch.CacheDir,
			CacheTimeout:    cfg.CacheTimeout(),
			MemoryCacheSize: cfg.Fetch.MemoryCacheSize,
			Proxies:         cfg.Fetch.Proxies,
			ProxyMaxRetries: cfg.Fetch.ProxyMaxRetries,
			RespectRobots:   cfg.Fetch.RespectRobots,
			Logger:          logger,
		},
		Logger: logger,
	}, cfg.Sites.BaseURLs)

	logger.Info("starting server",
		"host", cfg.Server.Host, "port", cfg.Server.Port, "sites", registry.IDs())

	s := server.NewServer(cfg, registry, logger)
	if err := s.Listen(); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

// newLogger writes text when stdout is a terminal and JSON otherwise, so
// piped or collected output stays machine-readable.
func newLogger() *slog.Logger {
	if fi, err := os.Stdout.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
		return slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
