package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nfrund/announcer/internal/commentary"
)

type resolveResult struct {
	Kind     commentary.EventKind `json:"kind"`
	Known    bool                 `json:"known"`
	Style    commentary.Style     `json:"style"`
	Priority int                  `json:"priority"`
	Messages []string             `json:"messages"`
}

func newResolveCmd() *cobra.Command {
	var (
		style  string
		pack   string
		format string
		count  int
		ctx    commentary.Context
	)

	cmd := &cobra.Command{
		Use:   "resolve <KIND>",
		Short: "Resolve one event into a commentary line",
		Long: `Resolve an event kind into its priority and a commentary line, the same
way the service does for a game event. Kinds are case-insensitive and may use
spaces or dashes instead of underscores.

Examples:
  announcer-cli resolve GAME_OVER --score 1250
  announcer-cli resolve alien_destroyed_normal --style trashtalk --count 5
  announcer-cli resolve "level up" --level 4 --pack ./phrases.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := resolveStyle(style, savedPrefs().Style)
			if err != nil {
				return err
			}

			c := commentary.NewClassifier()
			if err := applyPack(cmd.Context(), pack, c); err != nil {
				return err
			}

			kind := commentary.ParseKind(args[0])
			res := resolveResult{Kind: kind, Style: st}
			for i := 0; i < max(count, 1); i++ {
				r := c.Resolve(kind, st, ctx)
				res.Known, res.Priority = r.Known, r.Priority
				res.Messages = append(res.Messages, r.Message)
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			if !res.Known {
				fmt.Fprintf(out, "Unknown event kind %q, using the fallback line.\n", args[0])
			}
			fmt.Fprintf(out, "Kind:     %s\n", res.Kind)
			fmt.Fprintf(out, "Style:    %s\n", res.Style)
			fmt.Fprintf(out, "Priority: %d\n", res.Priority)
			for _, m := range res.Messages {
				fmt.Fprintf(out, "  %s\n", m)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&style, "style", "", "Commentary style (neutral, trashtalk); defaults to the saved preference")
	f.StringVar(&pack, "pack", "", "Phrase pack YAML to layer over the built-in catalog")
	f.StringVarP(&format, "format", "f", "text", "Output format (text, json)")
	f.IntVarP(&count, "count", "n", 1, "Number of lines to resolve")
	f.IntVar(&ctx.Score, "score", 0, "Score placeholder value")
	f.IntVar(&ctx.Lives, "lives", 0, "Lives placeholder value")
	f.IntVar(&ctx.Level, "level", 0, "Level placeholder value")
	f.StringVar(&ctx.PowerUpType, "powerup", "", "Power-up type placeholder value")
	return cmd
}
