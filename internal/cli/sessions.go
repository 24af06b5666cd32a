package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memclaw/memclaw/internal/memory"
)

var sessionsLimit int

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recorded agent sessions, newest first",
	RunE:  runSessions,
}

func init() {
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "n", 20, "Maximum rows to return")

	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	svc, _, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	rows, err := svc.ListSessions(sessionsLimit)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("No sessions recorded yet.")
		return nil
	}
	fmt.Printf("%-6s %-10s %-16s %-10s %s\n", "ID", "APP", "STARTED", "STATE", "PROJECT")
	for _, s := range rows {
		state := "ended"
		if s.Ongoing() {
			state = "ongoing"
		}
		fmt.Printf("%-6d %-10s %-16s %-10s %s\n", s.ID, s.App, formatTime(s.StartedAt), state, truncate(s.ProjectDir, 50))
	}
	printCurrent(svc)
	return nil
}

func printCurrent(svc *memory.MemoryService) {
	cur, err := svc.CurrentSession()
	if err != nil || cur == nil {
		return
	}
	fmt.Printf("\nCurrent session: #%d (%s)\n", cur.ID, cur.ExternalID)
}
