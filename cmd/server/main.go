package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/taskforce/taskmanager/cmd/server/cmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "taskmanager",
		Short: "Task manager REST API",
		// Running without a subcommand serves the API.
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.Serve(c.Context())
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cmd.ServeCmd())
	rootCmd.AddCommand(cmd.MigrateCmd())
	rootCmd.AddCommand(cmd.TokensCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
