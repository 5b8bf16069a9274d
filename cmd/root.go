// Package cmd holds the vidsnatch command line: the server and a small
// client for its local API.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	serverURL  string
	noColor    bool
)

var rootCmd = &cobra.Command{
	Use:   "vidsnatch",
	Short: "Local video download service",
	Long: `vidsnatch runs a local download service driven by yt-dlp and talks to it.

Examples:
  vidsnatch serve
  vidsnatch get https://www.youtube.com/watch?v=dQw4w9WgXcQ --wait
  vidsnatch status
  vidsnatch resolve "Funny_Cat_Video.mp4.part"`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./config.yaml or ~/.vidsnatch/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "API base URL (default http://127.0.0.1:<server.port>)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(serveCmd, getCmd, statusCmd, cancelCmd, retryCmd, deleteCmd, clearCmd, resolveCmd, historyCmd)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}
