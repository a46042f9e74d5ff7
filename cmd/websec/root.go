package main

import (
	"github.com/spf13/cobra"

	"github.com/Brian1011/web-sec-api/cmd/internal/app"
)

// NewRootCmd creates the root command for the websec CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "websec",
		Short: "websec - phone and password authentication with device-bound sessions",
		Long: `websec registers users, issues device-bound sessions activated by an SMS code,
and lets users list and revoke their sessions. Configuration comes from WEBSEC_* variables.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	return cmd
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server. Without WEBSEC_DATABASE_URL it runs on in-memory stores.
SIGINT and SIGTERM trigger a graceful shutdown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Serve(cmd.Context())
		},
	}
}
