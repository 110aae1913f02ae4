package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "webmoe",
	Short: "Discourse webhook to chat-bot bridge",
	Long:  "Receives Discourse webhook events and broadcasts them into configured chat groups.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
