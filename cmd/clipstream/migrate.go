package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/clipstream/backend/internal/app"
	"github.com/clipstream/backend/internal/config"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Run database migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			command := "up"
			if len(args) == 1 {
				command = args[0]
			}

			if err := app.Migrate(cmd.Context(), cfg, command); err != nil {
				return err
			}

			log.Printf("migrate %s complete", command)
			return nil
		},
	}
}
