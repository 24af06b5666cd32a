package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/memclaw/memclaw/internal/memory"
)

var (
	contextMaxTokens int
	contextProject   string
)

var contextCmd = &cobra.Command{
	Use:   "context [query]",
	Short: "Assemble a token-budgeted context block",
	RunE:  runContext,
}

func init() {
	contextCmd.Flags().IntVar(&contextMaxTokens, "max-tokens", 0, "Token budget (0 = config default)")
	contextCmd.Flags().StringVarP(&contextProject, "project", "p", "", "Project directory to prioritize")

	rootCmd.AddCommand(contextCmd)
}

func runContext(cmd *cobra.Command, args []string) error {
	svc, cfg, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	budget := contextMaxTokens
	if budget <= 0 {
		budget = cfg.Memory.MaxContextTokens
	}
	items, err := newAssembler(svc, cfg).BuildContext(strings.Join(args, " "), budget, strings.TrimSpace(contextProject))
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("No context available.")
		return nil
	}
	fmt.Print(memory.FormatContext(items))
	fmt.Printf("\n%d items, %d/%d tokens\n", len(items), memory.TotalTokens(items), budget)
	return nil
}
