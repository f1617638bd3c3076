package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aretw0/genui/internal/cli"
	"github.com/aretw0/genui/pkg/domain"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Inspect and call the tools offered to the model",
}

var toolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the builtin and process tools",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newToolApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		list := app.Client.Tools()
		sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
		t := table.New().
			Border(lipgloss.RoundedBorder()).
			Headers("NAME", "DESCRIPTION")
		for _, tool := range list {
			t.Row(tool.Name, tool.Description)
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		return nil
	},
}

var toolsCallCmd = &cobra.Command{
	Use:   "call <name>",
	Short: "Call a tool through the argument firewall and the cache",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetString("args")
		call := domain.ToolCall{ID: uuid.NewString(), Name: args[0]}
		if raw != "" {
			if err := json.Unmarshal([]byte(raw), &call.Args); err != nil {
				return fmt.Errorf("invalid --args: %w", err)
			}
		}

		app, err := newToolApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		res, err := app.Tools.Execute(cmd.Context(), call)
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		if res.IsError {
			return fmt.Errorf("tool %s failed: %s", call.Name, res.Error)
		}
		return nil
	},
}

// newToolApp wires the tool stack without reaching for a model.
func newToolApp(cmd *cobra.Command) (*cli.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := cli.NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	return cli.NewApp(cmd.Context(), cfg, cli.WithLogger(logger), cli.WithOffline())
}

func init() {
	rootCmd.AddCommand(toolsCmd)
	toolsCmd.AddCommand(toolsListCmd, toolsCallCmd)
	toolsCallCmd.Flags().String("args", "", "Arguments as a JSON object")
}
