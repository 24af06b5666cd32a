package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/memclaw/memclaw/internal/mcpserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP memory server on stdio",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	svc, cfg, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	// stdout carries the MCP protocol; keep any banner on stderr.
	fmt.Fprintf(os.Stderr, "memclaw-memory %s serving on stdio (db: %s)\n", version, cfg.DBPath())
	return mcpserver.Serve(mcpserver.New(svc, cfg, version))
}
