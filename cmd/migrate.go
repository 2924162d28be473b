package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/meridian-wealth/renewal-cli/internal/profile"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database schemas",
	Long:  "Creates the audit trail tables, and the profile tables when a Postgres database is configured.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		e, err := newEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.store.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate audit store")
		}

		if repo, ok := e.repo.(*profile.PostgresRepository); ok {
			if err := repo.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate profile store")
			}
		}

		fmt.Println("Migrations applied.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
