package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/aretw0/genui/internal/presentation/tui"
	"github.com/aretw0/genui/pkg/adapters/loam"
	"github.com/aretw0/genui/pkg/adapters/openai"
	"github.com/aretw0/genui/pkg/domain"
	"github.com/aretw0/genui/pkg/render"
)

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Browse the few-shot example gallery",
	Long: `Lists, shows and exports the example trees handed to the model as few-shot
examples. Without a gallery directory the builtin examples are used.`,
}

var galleryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the gallery examples",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		examples, err := loadExamples(cmd)
		if err != nil {
			return err
		}
		t := table.New().
			Border(lipgloss.RoundedBorder()).
			Headers("NAME", "TITLE", "TAGS")
		for _, ex := range examples {
			t.Row(ex.Name, ex.Title, strings.Join(ex.Tags, ", "))
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		return nil
	},
}

var galleryShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Render one gallery example",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		examples, err := loadExamples(cmd)
		if err != nil {
			return err
		}
		for _, ex := range examples {
			if ex.Name != args[0] {
				continue
			}
			width := tui.TerminalWidth()
			painter := tui.NewPainter(tui.WithWidth(width), tui.WithMarkdown(tui.NewMarkdown(width)))
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n> %s\n\n", ex.Title, ex.Prompt)
			fmt.Fprintln(out, painter.Paint(render.New().Render(ex.UI, "")))
			return nil
		}
		return fmt.Errorf("%w: %s", loam.ErrExampleNotFound, args[0])
	},
}

var galleryExportCmd = &cobra.Command{
	Use:   "export <dir>",
	Short: "Write the examples as markdown documents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		examples, err := loadExamples(cmd)
		if err != nil {
			return err
		}
		if err := loam.Write(cmd.Context(), args[0], examples); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d examples to %s\n", len(examples), args[0])
		return nil
	},
}

// loadExamples reads the configured gallery, or the builtin examples when
// none is configured.
func loadExamples(cmd *cobra.Command) ([]domain.Example, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.GalleryDir == "" {
		return openai.BuiltinExamples(), nil
	}
	g, err := loam.Open(cfg.GalleryDir)
	if err != nil {
		return nil, err
	}
	return g.Examples(cmd.Context())
}

func init() {
	rootCmd.AddCommand(galleryCmd)
	galleryCmd.AddCommand(galleryListCmd, galleryShowCmd, galleryExportCmd)
}
