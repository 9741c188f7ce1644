package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"anoa.com/yamdb/internal/bootstrap"
	"anoa.com/yamdb/internal/config"
	"anoa.com/yamdb/pkg/database"
	"anoa.com/yamdb/pkg/logger"
	"anoa.com/yamdb/pkg/validator"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// setup loads configuration, configures logging and opens the database.
// Every subcommand starts here.
func setup() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if err := validator.Register(); err != nil {
		return nil, nil, err
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if err := bootstrap.Prepare(db); err != nil {
		return nil, nil, fmt.Errorf("prepare join tables: %w", err)
	}

	return cfg, db, nil
}

func closeDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Error().Err(err).Msg("database close error")
	}
}

// connectRedis returns nil when no REDIS_URL is configured.
func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		log.Warn().Msg("REDIS_URL not set, posting cooldown disabled")
		return nil, nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// connectMeili returns nil when no MEILISEARCH_HOST is configured.
func connectMeili(host, apiKey string) meilisearch.ServiceManager {
	if host == "" {
		log.Warn().Msg("MEILISEARCH_HOST not set, title search uses the database")
		return nil
	}
	if !strings.HasPrefix(host, "http") {
		host = "http://" + host + ":7700"
	}
	return meilisearch.New(host, meilisearch.WithAPIKey(apiKey))
}
