package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/taskforce/taskmanager/internal/app"
	"github.com/taskforce/taskmanager/internal/config"
	"github.com/taskforce/taskmanager/internal/logger"
)

func TokensCmd() *cobra.Command {
	tokensCmd := &cobra.Command{
		Use:   "tokens",
		Short: "Maintain session tokens",
	}

	tokensCmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Delete expired session tokens",
		RunE: func(c *cobra.Command, args []string) error {
			cfg := config.Load()
			logger.Init(cfg.IsDevelopment(), cfg.SentryDSN)

			a, err := app.New(cfg)
			if err != nil {
				return err
			}
			defer func() {
				closeErr := a.Close()
				if closeErr != nil {
					slog.Error("failed to close app", "error", closeErr)
				}
			}()

			removed, err := a.AuthService.PruneExpiredTokens(c.Context())
			if err != nil {
				return fmt.Errorf("failed to prune tokens: %w", err)
			}

			fmt.Fprintf(c.OutOrStdout(), "removed %d expired tokens\n", removed)
			return nil
		},
	})

	return tokensCmd
}
