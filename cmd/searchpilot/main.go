package main

import (
	"context"
	"os"

	searchpilot "github.com/Desarso/searchpilot"
	"github.com/Desarso/searchpilot/chats"
	"github.com/Desarso/searchpilot/logger"
	"github.com/Desarso/searchpilot/server"
	"github.com/Desarso/searchpilot/tools"
)

func main() {
	cfg := searchpilot.LoadConfig()
	log := logger.New(logger.FromEnv(cfg.LogLevel, cfg.LogFormat))

	var store chats.Store
	var err error
	if cfg.DatabaseURL != "" {
		store, err = chats.NewPostgresStoreSimple(cfg.DatabaseURL)
	} else {
		store, err = chats.NewSQLiteStoreDefault()
	}
	if err != nil {
		log.Error("failed to open chat store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	var cache *tools.Cache
	if cfg.RedisAddr != "" {
		cache = tools.NewCache(cfg.RedisAddr, 0)
		if err := cache.Ping(context.Background()); err != nil {
			log.Warn("redis unavailable, tool caching disabled", "addr", cfg.RedisAddr, "error", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	registry := tools.NewDefaultRegistry(log, cache)
	copilot := searchpilot.New(cfg, store, registry, registry.Declarations(), log.WithComponent("copilot"))

	srv := server.New(copilot, log)
	log.Info("starting server", "port", cfg.Port)
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}
