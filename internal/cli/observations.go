package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/memclaw/memclaw/internal/memory"
)

var (
	addContent string
	addType    string
	addTags    string
	addProject string

	listLimit   int
	listType    string
	listProject string

	searchLimit int
)

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Record a new observation",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdd,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List observations, newest first",
	RunE:  runList,
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single observation in full",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over observations",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an observation",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	addCmd.Flags().StringVarP(&addContent, "content", "c", "", "Observation body text")
	addCmd.Flags().StringVarP(&addType, "type", "t", string(memory.TypeGeneral), "Observation type (decision|error|pattern|preference|general)")
	addCmd.Flags().StringVar(&addTags, "tags", "", "Comma-separated tags")
	addCmd.Flags().StringVarP(&addProject, "project", "p", "", "Project directory to associate")

	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "Maximum rows to return")
	listCmd.Flags().StringVarP(&listType, "type", "t", "", "Filter by observation type")
	listCmd.Flags().StringVarP(&listProject, "project", "p", "", "Filter by project directory")

	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "Maximum rows to return")

	rootCmd.AddCommand(addCmd, listCmd, showCmd, searchCmd, deleteCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	if addType != "" && !memory.IsValidObservationType(addType) {
		return fmt.Errorf("unknown observation type %q", addType)
	}
	svc, _, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	obs, err := svc.AddObservation(memory.NewObservation{
		Title:      args[0],
		Content:    addContent,
		Type:       memory.ParseObservationType(addType),
		Tags:       parseTagsCSV(addTags),
		ProjectDir: strings.TrimSpace(addProject),
	})
	if err != nil {
		return err
	}
	successMsg("✓ Saved observation #%d (%s, %d tokens)", obs.ID, obs.Type, obs.Tokens)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	if listType != "" && !memory.IsValidObservationType(listType) {
		return fmt.Errorf("unknown observation type %q", listType)
	}
	svc, _, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	rows, err := svc.ListObservations(memory.ListFilter{
		Limit:      listLimit,
		Type:       memory.ObservationType(listType),
		ProjectDir: strings.TrimSpace(listProject),
	})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("No observations recorded yet.")
		return nil
	}
	printObservationTable(rows)
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	svc, _, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	obs, err := svc.GetObservation(id)
	if err != nil {
		return err
	}
	if obs == nil {
		warnMsg("Observation #%d not found", id)
		return nil
	}
	fmt.Printf("ID:      %d\n", obs.ID)
	fmt.Printf("Title:   %s\n", obs.Title)
	fmt.Printf("Type:    %s\n", obs.Type)
	fmt.Printf("Tags:    %s\n", formatTags(obs.Tags))
	fmt.Printf("Tokens:  %d\n", obs.Tokens)
	fmt.Printf("Created: %s\n", formatTime(obs.CreatedAt))
	if obs.ProjectDir != "" {
		fmt.Printf("Project: %s\n", obs.ProjectDir)
	}
	if obs.SessionID != nil {
		fmt.Printf("Session: %d\n", *obs.SessionID)
	}
	if obs.Content != "" {
		fmt.Println()
		fmt.Println(obs.Content)
	}
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	svc, _, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	query := strings.Join(args, " ")
	rows, err := svc.Search(query, searchLimit)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Printf("No matches for %q.\n", query)
		return nil
	}
	printObservationTable(rows)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	svc, _, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	deleted, err := svc.DeleteObservation(id)
	if err != nil {
		return err
	}
	if !deleted {
		warnMsg("Observation #%d not found", id)
		return nil
	}
	successMsg("✓ Deleted observation #%d", id)
	return nil
}

func printObservationTable(rows []memory.Observation) {
	fmt.Printf("%-6s %-10s %-16s %-6s %s\n", "ID", "TYPE", "CREATED", "TOK", "TITLE")
	for _, o := range rows {
		fmt.Printf("%-6d %-10s %-16s %-6d %s\n", o.ID, o.Type, formatTime(o.CreatedAt), o.Tokens, truncate(o.Title, 60))
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid observation id %q", s)
	}
	return id, nil
}

func parseTagsCSV(csv string) []string {
	var tags []string
	for _, t := range strings.Split(csv, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
