package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/genui/pkg/catalog"
	"github.com/aretw0/genui/pkg/render"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a component tree against the catalog",
	Long: `Validates a JSON component tree (from a file or stdin) recursively and lists
every node the renderer would replace with a placeholder.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, err := readTree(args, cmd.InOrStdin())
		if err != nil {
			return err
		}
		if _, err := catalog.NewValidator().Validate(tree); err == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Tree is valid! ✅")
			return nil
		}

		out := cmd.OutOrStdout()
		count := 0
		render.Walk(render.New().Render(tree, ""), func(el *render.Element) {
			if el.Status == render.StatusOK {
				return
			}
			count++
			fmt.Fprintf(out, "%s: %s\n", el.Path, el.Message)
		})
		return fmt.Errorf("validation failed: %d invalid node(s)", max(count, 1))
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
