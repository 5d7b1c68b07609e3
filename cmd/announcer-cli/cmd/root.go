package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nfrund/announcer/internal/logging"
)

// NewRootCmd builds the announcer-cli command tree.
func NewRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "announcer-cli",
		Short: "Announcer CLI tool",
		Long: `announcer-cli exercises the commentary engine without a browser.

Available commands:
  events     List event kinds and their priorities
  resolve    Resolve one event into a commentary line
  simulate   Replay a scripted event stream through an announcer
  prefs      Show or change the saved style and voice
  topics     Explore the pub/sub topics of the service

Use "announcer-cli [command] --help" for more information about a specific command.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Diagnostics go to stderr so command output stays pipeable.
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(),
				&slog.HandlerOptions{Level: logging.ParseLevel(logLevel)})))
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newVersionCmd(),
		newEventsCmd(),
		newResolveCmd(),
		newSimulateCmd(),
		newPrefsCmd(),
		newTopicsCmd(),
	)
	return root
}

// Execute executes the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
