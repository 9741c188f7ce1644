package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "yamdb",
	Short: "YaMDb review aggregation API",
	Long: `YaMDb collects user reviews of titles (books, films, music) grouped by
category and genre, and serves them with an average rating over a JSON API.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, importCmd, createSuperuserCmd, reindexCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
