package main

import (
	"errors"

	"anoa.com/yamdb/internal/bootstrap"
	"github.com/spf13/cobra"
)

var superuser bootstrap.SuperuserInput

var createSuperuserCmd = &cobra.Command{
	Use:   "createsuperuser",
	Short: "Create an active superuser, or promote an existing account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if superuser.Username == "" || superuser.Email == "" {
			return errors.New("--username and --email are required")
		}

		_, db, err := setup()
		if err != nil {
			return err
		}
		defer closeDB(db)

		if err := bootstrap.Migrate(db); err != nil {
			return err
		}
		_, err = bootstrap.SeedSuperuser(cmd.Context(), db, superuser)
		return err
	},
}

func init() {
	createSuperuserCmd.Flags().StringVar(&superuser.Username, "username", "", "superuser username")
	createSuperuserCmd.Flags().StringVar(&superuser.Email, "email", "", "superuser email")
}
