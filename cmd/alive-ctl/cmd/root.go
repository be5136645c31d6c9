package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/still-alive/internal/config"
	"github.com/oshokin/still-alive/internal/service/client"
	"github.com/oshokin/still-alive/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// serverAddress overrides server_addr from the configuration.
	serverAddress string

	// rootCmd is the alive-ctl entry point.
	rootCmd = &cobra.Command{
		Use:   "alive-ctl",
		Short: "Check in and manage emergency contacts.",
		Long: `Talks to a running alive-server.

Check in once a day to tell the monitor you are fine. Without a check-in you get
a reminder after a day, and your emergency contacts are alerted after two days.`,
		SilenceUsage: true,
	}

	// checkInCmd records a check-in.
	checkInCmd = &cobra.Command{
		Use:     "checkin",
		Aliases: []string{"alive"},
		Short:   "Tell the monitor you are alive.",
		Long: `Records a check-in. The request is retried until the server confirms it,
so it is safe to run while the server restarts. Interrupt with Ctrl+C to give up.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return client.CheckIn(ctx, options(), cmd.OutOrStdout())
		},
	}

	// statusCmd prints the monitor overview.
	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show check-in status and escalation state.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return client.Status(cmd.Context(), options(), cmd.OutOrStdout())
		},
	}
)

// options builds the client options from the persistent flags.
func options() *client.Options {
	return &client.Options{
		ConfigPath:    cfgPath,
		ServerAddress: serverAddress,
	}
}

// Execute runs the alive-ctl CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&serverAddress, "server", "s", "", "server address, overrides server_addr")

	rootCmd.AddCommand(checkInCmd, statusCmd, newContactsCmd())
}
