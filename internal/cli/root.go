package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/memclaw/memclaw/internal/cli.version=1.2.3"
	version = "0.3.0"
	logo    = "\n" +
		"  __  __                 ____ _\n" +
		" |  \\/  | ___ _ __ ___  / ___| | __ ___      __\n" +
		" | |\\/| |/ _ \\ '_ ` _ \\| |   | |/ _` \\ \\ /\\ / /\n" +
		" | |  | |  __/ | | | | | |___| | (_| |\\ V  V /\n" +
		" |_|  |_|\\___|_| |_| |_|\\____|_|\\__,_| \\_/\\_/\n"
)

var rootCmd = &cobra.Command{
	Use:   "memclaw",
	Short: "MemClaw - Memory & Context Engine for coding agents",
	Long:  color.CyanString(logo) + "\nDurable memory for AI coding sessions: observations, search, and\ntoken-budgeted context retrieval backed by SQLite.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		return err
	}
	return nil
}

func init() {
	// Hook ingestion writes context to stdout for the agent to consume;
	// diagnostics must stay on stderr.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("🏷️ MemClaw Version")
		fmt.Printf("Version: %s\n", version)
	},
}
