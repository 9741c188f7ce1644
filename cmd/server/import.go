package main

import (
	"anoa.com/yamdb/internal/importer"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var importDir string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load CSV fixtures (users, categories, genres, titles, reviews, comments)",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := setup()
		if err != nil {
			return err
		}
		defer closeDB(db)

		results, err := importer.New(db).Run(cmd.Context(), importDir)
		if err != nil {
			return err
		}

		inserted := 0
		for _, r := range results {
			inserted += r.Inserted
		}
		log.Info().Int("files", len(results)).Int("inserted", inserted).Msg("data successfully imported")
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importDir, "dir", "static/data", "directory holding the CSV files")
}
