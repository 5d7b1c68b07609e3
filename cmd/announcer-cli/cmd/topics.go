package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nfrund/announcer/cmd/announcer-cli/internal/topics"
	"github.com/nfrund/announcer/internal/topicmgr"
)

func newTopicsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topics",
		Short: "Explore the pub/sub topics of the service",
		Long: `The topics command lists and inspects the topics the service publishes and
subscribes to. Browser clients publish the announcer.* client topics over the
data websocket; ws.* topics belong to the websocket bridges.

Available subcommands:
  list      List all registered topics with optional filtering
  get       Get detailed information about a specific topic
  validate  Validate a topic name and definition

Examples:
  announcer-cli topics list --module announcer
  announcer-cli topics get announcer.game.event --format json
  announcer-cli topics validate announcer.speech.ended`,
	}
	cmd.AddCommand(newTopicsListCmd(), newTopicsGetCmd(), newTopicsValidateCmd())
	return cmd
}

func newTopicsListCmd() *cobra.Command {
	var format, module, scope string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all registered topics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := topics.Initialize()
			if err != nil {
				return fmt.Errorf("failed to initialize topics: %w", err)
			}

			list := manager.List()
			if module != "" {
				list = manager.ListByModule(module)
			}
			if scope != "" {
				sc := parseScope(scope)
				if sc == "" {
					return fmt.Errorf("invalid scope %q, valid scopes: framework, module", scope)
				}
				kept := list[:0]
				for _, t := range list {
					if t.Scope() == sc {
						kept = append(kept, t)
					}
				}
				list = kept
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No topics found")
				return nil
			}
			switch format {
			case "json":
				return topics.DisplayTopicsJSON(out, list)
			case "table":
				return topics.DisplayTopicsTable(out, list)
			default:
				return fmt.Errorf("unsupported output format %q, use 'table' or 'json'", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, json)")
	cmd.Flags().StringVarP(&module, "module", "m", "", "Filter topics by module name")
	cmd.Flags().StringVarP(&scope, "scope", "s", "", "Filter topics by scope (framework, module)")
	return cmd
}

func newTopicsGetCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "get <topic-name>",
		Short: "Get detailed information about a specific topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := topics.Initialize()
			if err != nil {
				return fmt.Errorf("failed to initialize topics: %w", err)
			}
			topic, err := manager.Lookup(args[0])
			if err != nil {
				return fmt.Errorf("%w (use 'announcer-cli topics list' to see all topics)", err)
			}
			return topics.DisplayTopicDetails(cmd.OutOrStdout(), topic, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, json)")
	return cmd
}

func newTopicsValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <topic-name>",
		Short: "Validate a topic name and definition",
		Long: `Check a topic name against the naming convention (lowercase segments
separated by dots, no reserved prefixes) and confirm it is registered.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := topics.Initialize()
			if err != nil {
				return fmt.Errorf("failed to initialize topics: %w", err)
			}
			name := args[0]
			if err := manager.ValidateTopicName(name); err != nil {
				return fmt.Errorf("topic name validation failed: %w", err)
			}
			topic, ok := manager.Get(name)
			if !ok {
				return fmt.Errorf("topic %q is well formed but not registered", name)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Topic '%s' is valid\n", topic.Name())
			fmt.Fprintf(out, "   Scope: %s\n", topic.Scope())
			return nil
		},
	}
}

// parseScope converts string scope to topicmgr.TopicScope
func parseScope(s string) topicmgr.TopicScope {
	switch strings.ToLower(s) {
	case "framework":
		return topicmgr.ScopeFramework
	case "module":
		return topicmgr.ScopeModule
	default:
		return ""
	}
}
