package main

import (
	"anoa.com/yamdb/internal/bootstrap"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := setup()
		if err != nil {
			return err
		}
		defer closeDB(db)

		if err := bootstrap.Migrate(db); err != nil {
			return err
		}
		log.Info().Msg("migration completed")
		return nil
	},
}
