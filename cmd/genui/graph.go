package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/genui/internal/presentation/graph"
	"github.com/aretw0/genui/pkg/render"
)

var graphCmd = &cobra.Command{
	Use:   "graph [file]",
	Short: "Export a component tree as a Mermaid diagram",
	Long:  `Renders a JSON component tree (from a file or stdin) and outputs a Mermaid diagram (graph TD) of its nodes, slots and placeholders.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, err := readTree(args, cmd.InOrStdin())
		if err != nil {
			return err
		}
		selected, _ := cmd.Flags().GetString("select")
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(render.New().Render(tree, selected)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("select", "", "Highlight the node at this path")
}
