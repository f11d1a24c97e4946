package main

import (
	"fmt"

	"github.com/howard-nolan/studyproxy/internal/config"
	"github.com/howard-nolan/studyproxy/internal/logger"
	"github.com/howard-nolan/studyproxy/internal/waitlist"
	"github.com/spf13/cobra"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply or inspect the waitlist database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			logger.Setup(cfg.Server)

			db, err := waitlist.Open(cmd.Context(), cfg.Backend.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connecting to database: %w", err)
			}
			defer db.Close()

			return waitlist.Migrate(cmd.Context(), db, args[0])
		},
	}
}
