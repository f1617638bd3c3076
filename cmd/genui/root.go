package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/genui/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "genui",
	Short: "GenUI streams model-generated interfaces to your terminal",
	Long: `GenUI asks a language model for a JSON component tree, repairs and renders it
while it streams, and lets you interact with the result: fill inputs, press
buttons, and refine single components in edit mode.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default genui.yaml when present)")
	flags.String("model", "", "Model name")
	flags.String("base-url", "", "OpenAI-compatible endpoint")
	flags.String("redis", "", "Redis address for shared conversations and tool cache")
	flags.String("gallery", "", "Directory of example trees used as few-shot examples")
	flags.String("tools", "", "Process tools file")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("log-format", "", "Log format: text or json")
}

// loadConfig reads the configuration and applies the persistent flags on
// top. Flags win over the environment, which wins over the file.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	set := func(name string, dst *string) {
		if cmd.Flags().Changed(name) {
			*dst, _ = cmd.Flags().GetString(name)
		}
	}
	set("model", &cfg.Model.Model)
	set("base-url", &cfg.Model.BaseURL)
	set("redis", &cfg.Redis.Addr)
	set("gallery", &cfg.GalleryDir)
	set("tools", &cfg.ToolsFile)
	set("log-level", &cfg.LogLevel)
	set("log-format", &cfg.LogFormat)
	return cfg, cfg.Validate()
}
