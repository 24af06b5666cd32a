package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/memclaw/memclaw/internal/config"
	"github.com/memclaw/memclaw/internal/hooks"
)

var ingestHook string

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "Manage the Claude Code hook integration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var hooksRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register SessionStart and PostToolUse hooks in the agent settings",
	RunE:  runHooksRegister,
}

var hooksUnregisterCmd = &cobra.Command{
	Use:   "unregister",
	Short: "Remove memclaw hook entries from the agent settings",
	RunE:  runHooksUnregister,
}

var hooksStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show hook registration status",
	RunE:  runHooksStatus,
}

var hooksIngestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest one hook event from stdin (invoked by the agent)",
	Run:   runHooksIngest,
}

func init() {
	hooksIngestCmd.Flags().StringVar(&ingestHook, "hook", "", "Event kind (session-start|post-tool-use)")

	hooksCmd.AddCommand(hooksRegisterCmd, hooksUnregisterCmd, hooksStatusCmd, hooksIngestCmd)
	rootCmd.AddCommand(hooksCmd)
}

func settingsManager(cfg *config.Config) (*hooks.SettingsManager, error) {
	path, err := cfg.ClaudeSettingsPath()
	if err != nil {
		return nil, err
	}
	return hooks.NewSettingsManager(path, cfg.Hooks.Command), nil
}

func runHooksRegister(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	mgr, err := settingsManager(cfg)
	if err != nil {
		return err
	}
	if err := mgr.Register(); err != nil {
		return err
	}
	successMsg("✓ Hooks registered")
	return nil
}

func runHooksUnregister(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	mgr, err := settingsManager(cfg)
	if err != nil {
		return err
	}
	if err := mgr.Unregister(); err != nil {
		return err
	}
	successMsg("✓ Hooks unregistered")
	return nil
}

func runHooksStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	mgr, err := settingsManager(cfg)
	if err != nil {
		return err
	}
	st, err := mgr.Status()
	if err != nil {
		return err
	}
	printHeader("🪝 MemClaw Hooks")
	printHookLine("SessionStart", st.SessionStart)
	printHookLine("PostToolUse", st.PostToolUse)
	return nil
}

func printHookLine(name string, registered bool) {
	mark := "✗ Not registered"
	if registered {
		mark = "✓ Registered"
	}
	fmt.Printf("%-14s %s\n", name+":", mark)
}

// runHooksIngest must never fail the calling agent: any error is logged
// to stderr and the process still exits 0.
func runHooksIngest(cmd *cobra.Command, args []string) {
	kind, err := hooks.ParseKind(ingestHook)
	if err != nil {
		slog.Warn("hook ingest skipped", "error", err)
		return
	}
	svc, cfg, err := openService()
	if err != nil {
		slog.Warn("hook ingest skipped", "error", err)
		return
	}
	defer svc.Close()

	res := hooks.NewPipeline(svc, cfg.Memory, slog.Default()).Ingest(kind, os.Stdin)
	if res.Outcome == hooks.OutcomeContext && res.Context != "" {
		fmt.Fprint(os.Stdout, res.Context)
	}
}
