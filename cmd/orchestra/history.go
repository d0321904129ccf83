package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"claudeorchestra/internal/knowledge"
)

var (
	historyLimit int
	historyPurge time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history <project>",
	Short: "Show agent invocation history for a project",
	Long: `Show the agent invocation history for a project.

Each entry records the role, step, model, token usage, cost and outcome
of one API call. Use --purge to delete entries older than a duration.

Examples:
  orchestra history myapp
  orchestra history myapp --limit 50
  orchestra history myapp --purge 720h   # drop entries older than 30 days`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum entries to show")
	historyCmd.Flags().DurationVar(&historyPurge, "purge", 0, "Delete entries older than this duration")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	project, err := store.GetProject(args[0])
	if err != nil {
		return fmt.Errorf("project %q: %w", args[0], err)
	}

	history, err := knowledge.OpenHistory(store.HistoryDBPath(project.Name))
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer history.Close()

	if historyPurge > 0 {
		n, err := history.PurgeOlderThan(historyPurge)
		if err != nil {
			return fmt.Errorf("purge history: %w", err)
		}
		fmt.Printf("Purged %d entries older than %s\n", n, historyPurge)
		return nil
	}

	entries, err := history.ListRecent(project.Name, historyLimit)
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No history yet. Run 'orchestra run " + project.Name + "' to start.")
		return nil
	}

	for _, e := range entries {
		displayHistoryEntry(e)
	}

	input, output, cost, err := history.TotalUsage(project.Name)
	if err != nil {
		return fmt.Errorf("total usage: %w", err)
	}
	fmt.Printf("\nTotals: %s in / %s out tokens, $%.4f\n",
		formatNumber(int(input)), formatNumber(int(output)), cost)
	return nil
}
