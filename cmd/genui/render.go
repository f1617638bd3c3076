package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/genui/internal/presentation/tui"
	"github.com/aretw0/genui/pkg/partialjson"
	"github.com/aretw0/genui/pkg/render"
)

var renderCmd = &cobra.Command{
	Use:   "render [file]",
	Short: "Render a component tree to the terminal",
	Long: `Renders a JSON component tree (from a file or stdin). Invalid nodes become
placeholders instead of failing the whole tree. Use --json for the rendered
view with node and property paths.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, err := readTree(args, cmd.InOrStdin())
		if err != nil {
			return err
		}
		selected, _ := cmd.Flags().GetString("select")
		asJSON, _ := cmd.Flags().GetBool("json")

		el := render.New().Render(tree, selected)
		out := cmd.OutOrStdout()
		if asJSON {
			data, err := json.MarshalIndent(render.NewView(el), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		width, _ := cmd.Flags().GetInt("width")
		if width <= 0 {
			width = tui.TerminalWidth()
		}
		painter := tui.NewPainter(tui.WithWidth(width), tui.WithMarkdown(tui.NewMarkdown(width)))
		fmt.Fprintln(out, painter.Paint(el))
		return nil
	},
}

var repairCmd = &cobra.Command{
	Use:   "repair [file]",
	Short: "Close a truncated JSON document",
	Long: `Completes a partial JSON document the way streamed model output is repaired:
unterminated strings, open containers and dangling keys are closed or dropped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(args, cmd.InOrStdin())
		if err != nil {
			return err
		}
		fixed, ok := partialjson.Repair(string(data))
		if !ok {
			return fmt.Errorf("input cannot be repaired into a JSON value")
		}
		fmt.Fprintln(cmd.OutOrStdout(), fixed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renderCmd, repairCmd)
	renderCmd.Flags().Bool("json", false, "Print the rendered view as JSON")
	renderCmd.Flags().String("select", "", "Highlight the node at this path")
	renderCmd.Flags().Int("width", 0, "Output width (default: terminal width)")
}
