package main

import (
	"errors"

	"anoa.com/yamdb/internal/jobs"
	search "anoa.com/yamdb/internal/modules/search/service"
	titleRepo "anoa.com/yamdb/internal/modules/title/repository"
	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the title search index from the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := setup()
		if err != nil {
			return err
		}
		defer closeDB(db)

		client := connectMeili(cfg.MeiliSearchHost, cfg.MeiliMasterKey)
		if client == nil {
			return errors.New("MEILISEARCH_HOST is not configured")
		}

		scheduler := jobs.NewScheduler(0)
		job := jobs.NewReindexTitles(titleRepo.NewTitleRepository(db), search.NewMeiliSearchService(client), "")
		if err := scheduler.Register(job); err != nil {
			return err
		}
		return scheduler.RunByName(cmd.Context(), jobs.ReindexTitlesJob)
	},
}
