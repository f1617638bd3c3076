package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/genui"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of genui",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "genui version %s\n", genui.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
