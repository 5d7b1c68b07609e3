package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nfrund/announcer/internal/commentary"
)

type eventRow struct {
	Kind     commentary.EventKind `json:"kind"`
	Title    string               `json:"title"`
	Priority int                  `json:"priority"`
}

// kindTitle turns POWERUP_COLLECT_SHIELD into "Powerup Collect Shield".
func kindTitle(k commentary.EventKind) string {
	words := strings.ToLower(strings.ReplaceAll(string(k), "_", " "))
	return cases.Title(language.English).String(words)
}

func newEventsCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List event kinds and their priorities",
		Long: `List every event kind the announcer understands, ordered by priority.
Higher priorities interrupt lower-priority speech; equal priorities wait.

Output formats:
  table - Human-readable table format (default)
  json  - Machine-readable JSON format`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := commentary.DefaultPriorities().Entries()
			rows := make([]eventRow, len(entries))
			for i, e := range entries {
				rows[i] = eventRow{Kind: e.Kind, Title: kindTitle(e.Kind), Priority: e.Priority}
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			case "table":
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "KIND\tTITLE\tPRIORITY")
				fmt.Fprintln(w, "----\t-----\t--------")
				for _, r := range rows {
					fmt.Fprintf(w, "%s\t%s\t%d\n", r.Kind, r.Title, r.Priority)
				}
				return w.Flush()
			default:
				return fmt.Errorf("unsupported output format %q, use 'table' or 'json'", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, json)")
	return cmd
}
