package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nfrund/announcer/internal/commentary"
)

func newPrefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change the saved style and voice",
		Long: `Preferences are stored in the per-user data directory and used as the
defaults of resolve and simulate.`,
	}
	cmd.AddCommand(newPrefsShowCmd(), newPrefsSetCmd())
	return cmd
}

func newPrefsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the saved preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := prefsStore()
			if err != nil {
				return err
			}
			p, err := store.Load()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "style: %s\nvoice: %s\n", p.Style, p.Voice)
			return nil
		},
	}
}

func newPrefsSetCmd() *cobra.Command {
	var style, voice string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change the saved preferences",
		Example: `  announcer-cli prefs set --style trashtalk
  announcer-cli prefs set --voice 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("style") && !cmd.Flags().Changed("voice") {
				return fmt.Errorf("nothing to set, pass --style or --voice")
			}
			store, err := prefsStore()
			if err != nil {
				return err
			}
			p, err := store.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("style") {
				p.Style = commentary.Style(style)
			}
			if cmd.Flags().Changed("voice") {
				p.Voice = voice
			}
			if err := store.Save(p); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Preferences saved.")
			return nil
		},
	}
	cmd.Flags().StringVar(&style, "style", "", "Commentary style (neutral, trashtalk)")
	cmd.Flags().StringVar(&voice, "voice", "", "Voice preference (random, index, id or name)")
	return cmd
}
