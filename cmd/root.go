package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the calchat application
var rootCmd = &cobra.Command{
	Use:   "calchat",
	Short: "Conversational calendar assistant",
	Long: `calchat is a conversational assistant that manages calendar
appointments through natural-language chat. A language model decides
which calendar actions to run; bookings are saved locally and synced
to Google Calendar when the user has connected their account.

It can run as:
  - An HTTP API server (serve)
  - A one-shot CLI chat (chat)`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "calchat version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newVersionCmd())
}
