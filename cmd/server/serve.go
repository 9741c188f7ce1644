package main

import (
	"context"
	"os/signal"
	"syscall"

	"anoa.com/yamdb/internal/bootstrap"
	"anoa.com/yamdb/internal/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Migrate the schema and start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServe(ctx)
	},
}

func runServe(ctx context.Context) error {
	cfg, db, err := setup()
	if err != nil {
		return err
	}
	defer closeDB(db)

	if err := bootstrap.Migrate(db); err != nil {
		return err
	}

	redisClient, err := connectRedis(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error().Err(err).Msg("redis close error")
			}
		}()
	}

	srv, err := server.NewServer(cfg, server.Dependencies{
		DB:    db,
		Redis: redisClient,
		Meili: connectMeili(cfg.MeiliSearchHost, cfg.MeiliMasterKey),
	})
	if err != nil {
		return err
	}

	log.Info().Str("env", cfg.AppEnv).Msg("starting yamdb")
	if err := srv.Run(ctx, ":"+cfg.Port); err != nil {
		return err
	}
	log.Info().Msg("yamdb stopped")
	return nil
}
