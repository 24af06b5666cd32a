package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memclaw/memclaw/internal/memory"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show memory store statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	svc, cfg, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	st, err := svc.Stats()
	if err != nil {
		return err
	}

	printHeader("📊 MemClaw Stats")
	fmt.Printf("Database:     %s\n", cfg.DBPath())
	fmt.Printf("Observations: %d\n", st.TotalObservations)
	fmt.Printf("Sessions:     %d\n", st.TotalSessions)
	fmt.Printf("Tokens:       %d\n", st.TotalTokens)
	if st.Oldest != nil {
		fmt.Printf("Oldest:       %s\n", formatTime(*st.Oldest))
	}
	if st.Newest != nil {
		fmt.Printf("Newest:       %s\n", formatTime(*st.Newest))
	}
	if len(st.ByType) > 0 {
		fmt.Println("\nBy type:")
		for _, t := range memory.ObservationTypes {
			if n, ok := st.ByType[t]; ok {
				fmt.Printf("  %-12s %d\n", t, n)
			}
		}
	}
	return nil
}
