package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/genui/internal/cli"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive session",
	Long: `Starts the interactive client. Plain lines are requests to the model; lines
starting with a slash are commands (try /help). Conversations can be resumed
with --conversation when a Redis store is configured.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		id, _ := cmd.Flags().GetString("conversation")
		fresh, _ := cmd.Flags().GetBool("fresh")
		offline, _ := cmd.Flags().GetBool("offline")
		quiet, _ := cmd.Flags().GetBool("quiet")
		asJSON, _ := cmd.Flags().GetBool("json")
		return cli.RunChat(cli.ChatOptions{
			Config:         cfg,
			ConversationID: id,
			Fresh:          fresh,
			Offline:        offline,
			Quiet:          quiet,
			JSON:           asJSON,
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("conversation", "c", "", "Resume a conversation by ID")
	chatCmd.Flags().Bool("fresh", false, "Delete the resumed conversation and start over")
	chatCmd.Flags().Bool("offline", false, "Answer from the gallery instead of calling a model")
	chatCmd.Flags().BoolP("quiet", "q", false, "Skip the banner and status lines")
	chatCmd.Flags().Bool("json", false, "Headless mode: JSON line commands on stdin, events on stdout")

	// chat is the default command
	rootCmd.RunE = chatCmd.RunE
	rootCmd.Flags().AddFlagSet(chatCmd.Flags())
}
